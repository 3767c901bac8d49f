package ingest

import (
	"encoding/binary"
	"log/slog"
	"sync"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/riferrei/srclient"
)

// wire format: magic byte, then a 4 byte big-endian schema id, then Avro binary.
const wireHeaderLen = 5

// SchemaFetcher is the narrow registry contract the decoder needs.
type SchemaFetcher interface {
	GetSchema(schemaID int) (*srclient.Schema, error)
}

// Decoder best-effort decodes schema-registry framed Avro messages into raw
// event maps. Every failure path returns nil so the caller can fall back to
// treating the payload as UTF-8 text within the same processing step.
type Decoder struct {
	registry SchemaFetcher
	logger   *slog.Logger

	mu     sync.Mutex
	codecs map[int]*goavro.Codec
}

// NewDecoder wraps a schema registry client. A nil registry yields a decoder
// that always declines, which models a disabled registry.
func NewDecoder(registry SchemaFetcher, logger *slog.Logger) *Decoder {
	if logger != nil {
		logger = logger.With("component", "schema_decoder")
	}
	return &Decoder{
		registry: registry,
		logger:   logger,
		codecs:   make(map[int]*goavro.Codec),
	}
}

// NewRegistryClient builds the concrete srclient-backed registry client with
// a bounded request timeout so a slow registry cannot stall ingestion.
func NewRegistryClient(url, user, password string) SchemaFetcher {
	client := srclient.NewSchemaRegistryClient(url)
	client.SetTimeout(3 * time.Second)
	if user != "" {
		client.SetCredentials(user, password)
	}
	return client
}

// Decode attempts a schema-registry decode of one message value. It returns
// nil when the payload is not wire-framed, the schema cannot be fetched, or
// the Avro body does not decode to a record.
func (d *Decoder) Decode(data []byte) map[string]any {
	if d == nil || d.registry == nil || len(data) < wireHeaderLen || data[0] != 0 {
		return nil
	}
	schemaID := int(binary.BigEndian.Uint32(data[1:wireHeaderLen]))

	codec, err := d.codec(schemaID)
	if err != nil {
		d.warn("schema fetch failed", "schema_id", schemaID, "error", err)
		return nil
	}

	native, _, err := codec.NativeFromBinary(data[wireHeaderLen:])
	if err != nil {
		d.warn("avro decode failed", "schema_id", schemaID, "error", err)
		return nil
	}

	record, ok := native.(map[string]any)
	if !ok {
		return nil
	}
	return flattenUnions(record)
}

func (d *Decoder) codec(schemaID int) (*goavro.Codec, error) {
	d.mu.Lock()
	cached, ok := d.codecs[schemaID]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	schema, err := d.registry.GetSchema(schemaID)
	if err != nil {
		return nil, err
	}
	codec, err := goavro.NewCodec(schema.Schema())
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.codecs[schemaID] = codec
	d.mu.Unlock()
	return codec, nil
}

func (d *Decoder) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}

// avro unions decode as a single-entry map keyed by the branch type name.
var unionBranches = map[string]struct{}{
	"boolean": {}, "int": {}, "long": {}, "float": {}, "double": {}, "string": {},
}

func flattenUnions(record map[string]any) map[string]any {
	for key, value := range record {
		inner, ok := value.(map[string]any)
		if !ok || len(inner) != 1 {
			continue
		}
		for branch, v := range inner {
			if _, known := unionBranches[branch]; known {
				record[key] = v
			}
		}
	}
	return record
}
