package emotion

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Model input size expected by the emotion network.
const inputSize = 64

// DNN is the model-backed classifier: a trained network over a 64x64
// grayscale crop of the face region.
type DNN struct {
	net gocv.Net
	mu  sync.Mutex // Protects inference
}

// NewDNN loads the emotion model. Callers fall back to NewFallback when
// this fails.
func NewDNN(modelPath string) (*DNN, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("load emotion model %s failed", modelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &DNN{net: net}, nil
}

// Classify crops the face region, normalizes it, and returns the argmax
// label of the network output.
func (d *DNN) Classify(jpeg []byte, box image.Rectangle) (Label, error) {
	if err := validateBox(box); err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	defer img.Close()

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	crop := box.Intersect(bounds)
	if crop.Empty() {
		return "", ErrInvalidInput
	}

	region := img.Region(crop)
	defer region.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)

	blob := gocv.BlobFromImage(gray, 1.0/255.0,
		image.Pt(inputSize, inputSize), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	defer prob.Close()

	best := 0
	bestScore := prob.GetFloatAt(0, 0)
	for i := 1; i < len(Labels) && i < prob.Cols(); i++ {
		if s := prob.GetFloatAt(0, i); s > bestScore {
			bestScore = s
			best = i
		}
	}
	return Labels[best], nil
}

// LowConfidence implements Classifier. Model output is trusted.
func (d *DNN) LowConfidence() bool { return false }

// Close releases the network.
func (d *DNN) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
