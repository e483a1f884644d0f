package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// Prediction is the top guess for a photo. Confidence is in [0, 1].
type Prediction struct {
	Label      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

type ImageClassifier interface {
	Classify(ctx context.Context, img []byte) (Prediction, error)
}

var errNoLabel = errors.New("no label detected")

type RekognitionClassifier struct {
	client *rekognition.Client
}

func NewRekognitionClassifier(cfg aws.Config) *RekognitionClassifier {
	return &RekognitionClassifier{client: rekognition.NewFromConfig(cfg)}
}

func (r *RekognitionClassifier) Classify(ctx context.Context, img []byte) (Prediction, error) {
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: img},
		MaxLabels:     aws.Int32(5),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return Prediction{}, err
	}
	// labels come back ordered by confidence
	for _, l := range out.Labels {
		if l.Name == nil {
			continue
		}
		return Prediction{
			Label:      *l.Name,
			Confidence: float64(aws.ToFloat32(l.Confidence)) / 100,
		}, nil
	}
	return Prediction{}, errNoLabel
}

// HTTPClassifier posts the photo as multipart field "file" to a /predict
// endpoint answering {"class": ..., "confidence": ...}.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

func NewHTTPClassifier(url string) *HTTPClassifier {
	return &HTTPClassifier{url: url, client: &http.Client{Timeout: 30 * time.Second}}
}

func (h *HTTPClassifier) Classify(ctx context.Context, img []byte) (Prediction, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "photo.jpg")
	if err != nil {
		return Prediction{}, err
	}
	if _, err := fw.Write(img); err != nil {
		return Prediction{}, err
	}
	if err := mw.Close(); err != nil {
		return Prediction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, &buf)
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return Prediction{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Prediction{}, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, string(body))
	}

	var p Prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Prediction{}, fmt.Errorf("decode classifier response: %w", err)
	}
	if p.Label == "" {
		return Prediction{}, errNoLabel
	}
	return p, nil
}
