package camera

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Device abstracts the physical capture device so the manager can be
// exercised without hardware.
type Device interface {
	// Open claims the device. Fails if the hardware is missing or held
	// by an external process.
	Open() error

	// Read captures one frame as encoded JPEG bytes.
	Read() ([]byte, error)

	// Close releases the device. Safe to call when not open.
	Close() error

	// Available reports whether the device could currently be opened,
	// without holding it.
	Available() bool
}

// Webcam is a gocv-backed Device for a local V4L camera.
type Webcam struct {
	id      int
	width   int
	height  int
	quality int
	cap     *gocv.VideoCapture
}

// NewWebcam creates a Device for the given capture device index.
func NewWebcam(id, width, height int) *Webcam {
	return &Webcam{id: id, width: width, height: height, quality: 85}
}

// Open claims the physical camera and applies the capture resolution.
func (w *Webcam) Open() error {
	cap, err := gocv.OpenVideoCapture(w.id)
	if err != nil {
		return fmt.Errorf("open device %d: %w", w.id, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return fmt.Errorf("device %d not opened", w.id)
	}
	cap.Set(gocv.VideoCaptureFrameWidth, float64(w.width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(w.height))
	w.cap = cap
	return nil
}

// Read captures one frame and encodes it as JPEG.
func (w *Webcam) Read() ([]byte, error) {
	if w.cap == nil {
		return nil, fmt.Errorf("device %d not open", w.id)
	}
	img := gocv.NewMat()
	defer img.Close()

	if ok := w.cap.Read(&img); !ok || img.Empty() {
		return nil, fmt.Errorf("read frame from device %d failed", w.id)
	}

	buf, err := gocv.IMEncodeWithParams(".jpg", img,
		[]int{gocv.IMWriteJpegQuality, w.quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())
	return jpeg, nil
}

// Close releases the physical camera.
func (w *Webcam) Close() error {
	if w.cap == nil {
		return nil
	}
	err := w.cap.Close()
	w.cap = nil
	return err
}

// Available probes the device by opening and immediately closing it.
// Returns false while the device is held by this process.
func (w *Webcam) Available() bool {
	if w.cap != nil {
		// We hold it, so it is usable for the current session but not
		// acquirable by another.
		return true
	}
	cap, err := gocv.OpenVideoCapture(w.id)
	if err != nil {
		return false
	}
	opened := cap.IsOpened()
	cap.Close()
	return opened
}
