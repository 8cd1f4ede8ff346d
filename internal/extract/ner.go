// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/llamagraph/llamagraph/pkg/types"
)

// nerModel is the token-classification model used for named entity
// recognition. Labels: PER, ORG, LOC, MISC with BIO prefixes.
const nerModel = "KnightsAnalytics/distilbert-NER"

// NERTagger extracts entities with an ONNX token-classification pipeline.
// Construct with NewNERTagger and Close when done; the session owns
// native resources.
type NERTagger struct {
	session  *hugot.Session
	pipeline *pipelines.TokenClassificationPipeline
}

// NewNERTagger downloads the NER model into modelDir if absent and
// builds the classification pipeline.
func NewNERTagger(modelDir string) (*NERTagger, error) {
	modelPath, err := prepareModel(nerModel, modelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("creating hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("creating NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("creating NER pipeline: %w", err)
	}

	return &NERTagger{session: session, pipeline: pipeline}, nil
}

// TagSentence runs the NER pipeline over one sentence and converts the
// labeled spans to entity mentions.
func (t *NERTagger) TagSentence(_ context.Context, s Sentence) ([]types.Entity, error) {
	result, err := t.pipeline.RunPipeline([]string{s.Text})
	if err != nil {
		return nil, fmt.Errorf("running NER pipeline: %w", err)
	}
	if len(result.Entities) == 0 {
		return nil, nil
	}

	var entities []types.Entity
	for _, ent := range result.Entities[0] {
		surface := strings.TrimSpace(ent.Word)
		if surface == "" {
			continue
		}
		entities = append(entities, types.NewEntity(
			surface,
			types.ParseEntityType(normalizeBIOLabel(ent.Entity)),
			types.Span{Start: s.Offset + int(ent.Start), End: s.Offset + int(ent.End)},
		))
	}
	return entities, nil
}

// Close releases the ONNX session.
func (t *NERTagger) Close() error {
	return t.session.Destroy()
}

// normalizeBIOLabel strips B- and I- tagging prefixes from NER labels.
func normalizeBIOLabel(label string) string {
	label = strings.TrimPrefix(label, "B-")
	return strings.TrimPrefix(label, "I-")
}

// prepareModel downloads the model into modelDir on first use and
// returns the local model path.
func prepareModel(modelName, modelDir string) (string, error) {
	if modelDir == "" {
		modelDir = "./models"
	}
	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := os.MkdirAll(modelDir, 0o755); err != nil {
			return "", fmt.Errorf("creating model directory: %w", err)
		}
		opts := hugot.NewDownloadOptions()
		opts.OnnxFilePath = "onnx/model.onnx"
		downloaded, err := hugot.DownloadModel(modelName, modelDir, opts)
		if err != nil {
			return "", fmt.Errorf("downloading model %s: %w", modelName, err)
		}
		modelPath = downloaded
	}
	return modelPath, nil
}
