package detect

import "context"

// Box is a face bounding box in frame pixel coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Face is one detected face with its expression-confidence mapping.
type Face struct {
	Box         Box                `json:"box"`
	Score       float64            `json:"score"`
	Expressions map[string]float64 `json:"expressions"` // label -> [0,1]
}

// Detector is the face/expression inference contract. DetectFaces runs
// one frame and may return zero faces; a failing call is treated by the
// pipeline as zero faces (the sampling loop never stops on a bad tick).
type Detector interface {
	// LoadModels verifies the model bundles are present and loadable.
	// Until it succeeds no session may start video.
	LoadModels(ctx context.Context) error
	DetectFaces(ctx context.Context, image []byte) ([]Face, error)
	Close() error
}
