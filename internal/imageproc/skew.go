package imageproc

import (
	"context"
	"math"

	"github.com/scantailor/scantailor-cli/internal/domain"
)

// GoodSkewConfidence is the minimal confidence at which a skew estimate is trusted.
const GoodSkewConfidence = 2.0

// Skew is the detected rotation of the content in degrees, clockwise positive.
type Skew struct {
	Angle      float64
	Confidence float64
}

// SkewEstimator finds the skew of text lines in a binary image. resolutionRatio
// is horizontal over vertical resolution.
type SkewEstimator interface {
	FindSkew(ctx context.Context, img *BinaryImage, resolutionRatio float64) (Skew, error)
}

// ProjectionSkewFinder searches the shear that makes the horizontal projection
// profile sharpest. The profile sharpness is the sum of squared differences
// between adjacent rows.
type ProjectionSkewFinder struct {
	MaxAngle   float64
	CoarseStep float64
	FineStep   float64
	MaxSamples int
}

// NewProjectionSkewFinder returns a finder searching +-7 degrees.
func NewProjectionSkewFinder() *ProjectionSkewFinder {
	return &ProjectionSkewFinder{MaxAngle: 7, CoarseStep: 0.5, FineStep: 0.05, MaxSamples: 250000}
}

type samplePoint struct{ x, y float64 }

// FindSkew implements SkewEstimator.
func (f *ProjectionSkewFinder) FindSkew(ctx context.Context, img *BinaryImage, resolutionRatio float64) (Skew, error) {
	if img.IsNull() {
		return Skew{}, nil
	}
	if resolutionRatio <= 0 {
		resolutionRatio = 1
	}
	black := img.CountBlack()
	if black == 0 {
		return Skew{}, nil
	}
	stride := 1
	if f.MaxSamples > 0 && black > f.MaxSamples {
		stride = (black + f.MaxSamples - 1) / f.MaxSamples
	}
	points := make([]samplePoint, 0, black/stride+1)
	n := 0
	for y := 0; y < img.h; y++ {
		for x := 0; x < img.w; x++ {
			if !img.pix[y*img.w+x] {
				continue
			}
			if n%stride == 0 {
				points = append(points, samplePoint{x: float64(x) / resolutionRatio, y: float64(y)})
			}
			n++
		}
	}

	span := float64(img.w)/resolutionRatio + 1
	profile := make([]float64, img.h+2*int(math.Ceil(span*math.Tan(f.MaxAngle*math.Pi/180)))+4)
	score := func(deg float64) float64 {
		for i := range profile {
			profile[i] = 0
		}
		tan := math.Tan(deg * math.Pi / 180)
		offset := float64(len(profile)-img.h) / 2
		for _, p := range points {
			row := int(p.y + p.x*tan + offset)
			if row >= 0 && row < len(profile) {
				profile[row]++
			}
		}
		s := 0.0
		for i := 1; i < len(profile); i++ {
			d := profile[i] - profile[i-1]
			s += d * d
		}
		return s
	}

	bestShear, bestScore, total, count := 0.0, -1.0, 0.0, 0
	for a := -f.MaxAngle; a <= f.MaxAngle+1e-9; a += f.CoarseStep {
		if err := domain.CheckCancelled(ctx); err != nil {
			return Skew{}, err
		}
		s := score(a)
		total += s
		count++
		if s > bestScore {
			bestScore, bestShear = s, a
		}
	}
	mean := total / float64(count)

	from, to := bestShear-f.CoarseStep, bestShear+f.CoarseStep
	for a := from; a <= to+1e-9; a += f.FineStep {
		if err := domain.CheckCancelled(ctx); err != nil {
			return Skew{}, err
		}
		if s := score(a); s > bestScore {
			bestScore, bestShear = s, a
		}
	}

	confidence := 0.0
	if mean > 0 {
		confidence = bestScore / mean
	}
	// A shear of +a flattens lines rising to the right, i.e. content
	// rotated by -a.
	return Skew{Angle: -bestShear, Confidence: confidence}, nil
}
