// Command facewatch runs the face recognition monitoring station: camera
// capture, face identification, emotion classification, and the
// dashboard-facing HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facewatch/internal/config"
	"facewatch/internal/log"
	"facewatch/pkg/camera"
	"facewatch/pkg/emotion"
	"facewatch/pkg/face"
	"facewatch/pkg/gallery"
	"facewatch/pkg/history"
	"facewatch/pkg/pipeline"
	"facewatch/pkg/store"
	"facewatch/pkg/web"
)

func main() {
	log.Init(config.LogLevel())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Camera
	device := camera.NewWebcam(config.CameraID(),
		config.DefaultCaptureWidth, config.DefaultCaptureHeight)
	cam := camera.NewManager(device)

	// Face detector and encoder. The models are required; there is no
	// simulated identity path.
	faceCfg := face.DefaultConfig()
	faceCfg.DetectorModelPath = config.FaceModelPath()
	faceCfg.EncoderModelPath = config.EncoderModelPath()
	detector, err := face.NewYuNet(faceCfg)
	if err != nil {
		log.Error("face detector init failed", "error", err)
		os.Exit(1)
	}
	defer detector.Close()

	// Emotion classifier, with a deterministic fallback when the model is
	// not present.
	classifier := newClassifier(config.EmotionModelPath())
	defer classifier.Close()

	// Storage: Postgres when configured, in-memory otherwise.
	g := gallery.New()
	galleryStore, historyStore := openStores(ctx)
	if err := g.Load(ctx, galleryStore); err != nil {
		log.Error("gallery load failed", "error", err)
		os.Exit(1)
	}
	log.Info("gallery loaded", "users", g.Size())

	threshold := config.Threshold()
	p := pipeline.New(cam, detector, classifier, g, historyStore, threshold)
	registrar := gallery.NewRegistrar(detector, g, galleryStore)

	srv := web.NewServer(config.Port(), cam, p, registrar, g, historyStore)

	// Live preview for websocket subscribers.
	go srv.RunFrameStream(ctx, 200*time.Millisecond)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		cancel()
		p.Stop()
		srv.Shutdown()
	}()

	log.Info("facewatch starting",
		"port", config.Port(),
		"camera", config.CameraID(),
		"threshold", threshold)

	if err := srv.Start(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// newClassifier selects the DNN classifier when its model file exists and
// the deterministic fallback otherwise. The choice is made once at startup.
func newClassifier(modelPath string) emotion.Classifier {
	if _, err := os.Stat(modelPath); err == nil {
		dnn, err := emotion.NewDNN(modelPath)
		if err == nil {
			log.Info("emotion classifier loaded", "model", modelPath)
			return dnn
		}
		log.Warn("emotion model load failed, using fallback", "error", err)
	} else {
		log.Warn("emotion model not found, using fallback", "model", modelPath)
	}
	return emotion.NewFallback()
}

// openStores connects the persistence layer. With FACEWATCH_DB unset both
// stores are in-memory and state is lost on restart.
func openStores(ctx context.Context) (gallery.Store, history.Store) {
	dsn := config.DatabaseURL()
	if dsn == "" {
		log.Warn("no database configured, state is in-memory only")
		return gallery.NewMemoryStore(), history.NewMemory()
	}

	pg, err := store.Open(dsn)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := pg.Init(ctx); err != nil {
		log.Error("schema init failed", "error", err)
		os.Exit(1)
	}
	log.Info("database connected")
	return pg, pg
}
