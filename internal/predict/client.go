package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rishit-agarwal/traffic-dashboard/internal/model"
	"github.com/rishit-agarwal/traffic-dashboard/internal/store"
)

// Horizon is the fixed prediction interval.
const Horizon = 15 * time.Minute

// ErrUnavailable means the inference step failed or there was not enough
// history; callers present "no prediction" rather than an error page.
var ErrUnavailable = errors.New("prediction unavailable")

// Client wraps the external speed-inference service.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type inferRequest struct {
	SensorID string   `json:"detid"`
	Features Features `json:"features"`
}

type inferResponse struct {
	PredictedSpeed *float64 `json:"predicted_speed"`
}

// Infer posts one feature vector and returns the predicted speed.
func (c *Client) Infer(ctx context.Context, sensorID string, f Features) (float64, error) {
	if c.endpoint == "" {
		return 0, fmt.Errorf("%w: no inference endpoint configured", ErrUnavailable)
	}
	body, err := json.Marshal(inferRequest{SensorID: sensorID, Features: f})
	if err != nil {
		return 0, fmt.Errorf("marshal inference request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: inference service returned %d", ErrUnavailable, resp.StatusCode)
	}
	var out inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: decode inference response: %v", ErrUnavailable, err)
	}
	if out.PredictedSpeed == nil {
		return 0, fmt.Errorf("%w: inference returned no value", ErrUnavailable)
	}
	return *out.PredictedSpeed, nil
}

// Predictor serves next-interval predictions for one sensor id.
type Predictor struct {
	Store  store.Store
	Client *Client
}

func NewPredictor(s store.Store, c *Client) *Predictor {
	return &Predictor{Store: s, Client: c}
}

// Predict looks up the sensor's recent readings, builds the feature vector
// and invokes inference. store.ErrNotFound passes through for unknown ids;
// every other failure mode wraps ErrUnavailable.
func (p *Predictor) Predict(ctx context.Context, id string) (model.SensorPredictionResponse, error) {
	recent, err := p.Store.RecentReadings(ctx, id, 5)
	if errors.Is(err, store.ErrNotFound) {
		return model.SensorPredictionResponse{}, err
	}
	if err != nil {
		return model.SensorPredictionResponse{}, fmt.Errorf("%w: load recent readings: %v", ErrUnavailable, err)
	}
	if len(recent) == 0 {
		return model.SensorPredictionResponse{}, fmt.Errorf("%w: no recent readings for %s", ErrUnavailable, id)
	}
	target := recent[0].Timestamp.Add(Horizon)
	f, ok := BuildFeatures(recent, target)
	if !ok {
		return model.SensorPredictionResponse{}, fmt.Errorf("%w: need %d readings for lag features, have %d", ErrUnavailable, minLags, len(recent))
	}
	if sensor, err := p.Store.SensorByID(ctx, id); err == nil && sensor.SpeedLimit != nil {
		f.SpeedLimit = *sensor.SpeedLimit
	}
	speed, err := p.Client.Infer(ctx, id, f)
	if err != nil {
		return model.SensorPredictionResponse{}, err
	}
	// two decimals, same as the dashboard displays
	speed = float64(int(speed*100+0.5)) / 100

	// ascending speed history for the UI chart
	hist := make([]model.HistoryPoint, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Speed == nil {
			continue
		}
		hist = append(hist, model.HistoryPoint{Timestamp: recent[i].Timestamp, Speed: recent[i].Speed})
	}
	return model.SensorPredictionResponse{
		SensorID:       id,
		Available:      true,
		PredictedSpeed: &speed,
		TargetTime:     &target,
		History:        hist,
	}, nil
}
