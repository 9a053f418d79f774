package face

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Config holds detector and encoder model configuration.
type Config struct {
	DetectorModelPath string  // YuNet ONNX model
	EncoderModelPath  string  // SFace ONNX model
	ConfidenceThresh  float64 // Minimum detection confidence (default 0.5)
	InputWidth        int     // Detector input width
	InputHeight       int     // Detector input height
}

// DefaultConfig returns production defaults for YuNet + SFace.
func DefaultConfig() Config {
	return Config{
		DetectorModelPath: "models/face_detection_yunet.onnx",
		EncoderModelPath:  "models/face_recognition_sface.onnx",
		ConfidenceThresh:  0.5,
		InputWidth:        320,
		InputHeight:       320,
	}
}

// YuNet detects faces with OpenCV's FaceDetectorYN and extracts identity
// embeddings with FaceRecognizerSF.
type YuNet struct {
	detector gocv.FaceDetectorYN
	encoder  gocv.FaceRecognizerSF
	config   Config
	mu       sync.Mutex // Protects inference
}

// NewYuNet creates the gocv-backed detector/encoder pair.
func NewYuNet(cfg Config) (*YuNet, error) {
	for _, path := range []string{cfg.DetectorModelPath, cfg.EncoderModelPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("model file not found: %s", path)
		}
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.DetectorModelPath,
		"", // No config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	encoder := gocv.NewFaceRecognizerSF(cfg.EncoderModelPath, "")

	return &YuNet{
		detector: detector,
		encoder:  encoder,
		config:   cfg,
	}, nil
}

// Detect finds faces in the JPEG image and extracts an embedding per face.
func (d *YuNet) Detect(jpeg []byte) ([]Face, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	// Update detector input size to match image
	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(img, &faces)

	var out []Face
	for r := 0; r < faces.Rows(); r++ {
		// YuNet output format (15 columns):
		// 0-3: x, y, w, h (bounding box in pixels)
		// 4-13: 5 facial landmarks (x,y pairs)
		// 14: face score
		x := int(faces.GetFloatAt(r, 0))
		y := int(faces.GetFloatAt(r, 1))
		w := int(faces.GetFloatAt(r, 2))
		h := int(faces.GetFloatAt(r, 3))
		score := float64(faces.GetFloatAt(r, 14))

		row := faces.RowRange(r, r+1)
		emb, err := d.feature(img, row)
		row.Close()
		if err != nil {
			return nil, err
		}

		out = append(out, Face{
			Box:        image.Rect(x, y, x+w, y+h),
			Confidence: score,
			Embedding:  emb,
		})
	}

	return out, nil
}

// feature aligns the face region and runs the SFace encoder.
func (d *YuNet) feature(img gocv.Mat, faceRow gocv.Mat) ([]float32, error) {
	aligned := gocv.NewMat()
	defer aligned.Close()
	d.encoder.AlignCrop(img, faceRow, &aligned)
	if aligned.Empty() {
		return nil, fmt.Errorf("face: align crop produced empty region")
	}

	feat := gocv.NewMat()
	defer feat.Close()
	d.encoder.Feature(aligned, &feat)

	emb := make([]float32, feat.Cols())
	for i := 0; i < feat.Cols(); i++ {
		emb[i] = feat.GetFloatAt(0, i)
	}
	return emb, nil
}

// Close releases the model resources.
func (d *YuNet) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	d.encoder.Close()
	return nil
}
