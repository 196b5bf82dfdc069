package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"caregate/models"
	"caregate/utils"

	"go.uber.org/zap"
)

// Dispatcher delivers protocol messages to a participant's callback
// endpoint. The action name becomes the final path segment.
type Dispatcher interface {
	Dispatch(ctx context.Context, p models.ParticipantRef, action string, payload any) error
}

// HTTPDispatcher posts signed JSON over plain HTTP.
type HTTPDispatcher struct {
	Client       *http.Client
	Signer       *Signer
	SubscriberID string
}

func NewHTTPDispatcher(signer *Signer, subscriberID string) *HTTPDispatcher {
	return &HTTPDispatcher{
		Client:       &http.Client{Timeout: 10 * time.Second},
		Signer:       signer,
		SubscriberID: subscriberID,
	}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, p models.ParticipantRef, action string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}

	url := strings.TrimSuffix(p.CallbackURI, "/") + "/" + action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Subscriber-ID", d.SubscriberID)
	req.Header.Set("X-Gateway-Signature", d.Signer.Sign(body))

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch %s to %s failed: %w", action, p.ID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("dispatch %s to %s: unexpected status %d", action, p.ID, resp.StatusCode)
	}
	utils.GetLogger().Debug("dispatched",
		zap.String("action", action),
		zap.String("participant", p.ID))
	return nil
}
