package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/dmitrymomot/flagkit/pkg/event"
)

// Sink indexes every impression as a document keyed by the impression uuid,
// so redelivery of the same event overwrites instead of duplicating.
type Sink struct {
	client *opensearch.Client
	cfg    Config
}

var _ event.Sink = (*Sink)(nil)

func NewSink(client *opensearch.Client, cfg Config) *Sink {
	if cfg.EventsIndex == "" {
		cfg.EventsIndex = "flagkit-impressions"
	}
	return &Sink{client: client, cfg: cfg}
}

func (s *Sink) Process(ctx context.Context, imp event.Impression) error {
	body, err := json.Marshal(imp)
	if err != nil {
		return errors.Join(ErrIndexFailed, err)
	}
	if s.cfg.IndexTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.IndexTimeout)
		defer cancel()
	}

	req := opensearchapi.IndexRequest{
		Index:      s.cfg.EventsIndex,
		DocumentID: imp.UUID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return errors.Join(ErrIndexFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return errors.Join(ErrIndexFailed, fmt.Errorf("status %s: %s", res.Status(), msg))
	}
	return nil
}
