package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// LocalCrossEncoder runs a cross-encoder ONNX model locally through hugot.
// Models like cross-encoder/ms-marco-MiniLM-L-6-v2 are single-label text
// classifiers over a "query [SEP] passage" pair; the label score is the
// relevance score.
type LocalCrossEncoder struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

// Load prepares the named cross-encoder model and returns an encoder bound to
// it. An empty model name means reranking is disabled and a Disabled encoder
// is returned without error. Model load failures are returned so the caller
// can log the degradation and fall back to Disabled.
func Load(modelName string) (CrossEncoder, error) {
	if modelName == "" {
		return Disabled{}, nil
	}

	modelPath, err := prepareModel(modelName)
	if err != nil {
		return Disabled{}, fmt.Errorf("failed to prepare cross-encoder model: %w", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return Disabled{}, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "cross-encoder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			slog.Warn("failed to destroy hugot session after pipeline error", "error", destroyErr)
		}
		return Disabled{}, fmt.Errorf("failed to create cross-encoder pipeline: %w", err)
	}

	return &LocalCrossEncoder{
		session:  session,
		pipeline: pipeline,
	}, nil
}

// Predict scores each document against the query. Documents are paired with
// the query the way sentence-transformers cross-encoders expect.
func (e *LocalCrossEncoder) Predict(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pairs := make([]string, len(documents))
	for i, doc := range documents {
		pairs[i] = query + " [SEP] " + doc
	}

	result, err := e.pipeline.RunPipeline(pairs)
	if err != nil {
		return nil, fmt.Errorf("cross-encoder inference failed: %w", err)
	}

	if len(result.ClassificationOutputs) != len(documents) {
		return nil, fmt.Errorf("expected %d scores, got %d", len(documents), len(result.ClassificationOutputs))
	}

	scores := make([]float64, len(documents))
	for i, outputs := range result.ClassificationOutputs {
		if len(outputs) == 0 {
			return nil, fmt.Errorf("no classification output for document %d", i)
		}
		scores[i] = float64(outputs[0].Score)
	}
	return scores, nil
}

// Close releases the underlying hugot session.
func (e *LocalCrossEncoder) Close() error {
	return e.session.Destroy()
}

// prepareModel downloads the model on first use and returns its local path.
func prepareModel(modelName string) (string, error) {
	modelDir := "./models"
	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := os.MkdirAll(modelDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create model directory: %w", err)
		}
		downloadOptions := hugot.NewDownloadOptions()
		downloadOptions.OnnxFilePath = "onnx/model.onnx"
		downloadedPath, err := hugot.DownloadModel(modelName, modelDir, downloadOptions)
		if err != nil {
			return "", fmt.Errorf("failed to download model: %w", err)
		}
		modelPath = downloadedPath
	}

	return modelPath, nil
}
