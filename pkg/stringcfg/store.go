package stringcfg

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/dantranh/pkg/kv"
	"github.com/haivivi/dantranh/pkg/music"
)

// storePrefix is the first key segment of every persisted config.
const storePrefix = "stringcfg"

// record is the persisted form of a Config. Pitches are stored by name so
// the encoding does not depend on the Pitch struct layout.
type record struct {
	Signature   string         `msgpack:"sig"`
	Extrapolate float64        `msgpack:"xp"`
	Strings     []recordString `msgpack:"s"`
}

type recordString struct {
	Pitch string  `msgpack:"p"`
	Y     float64 `msgpack:"y"`
}

// fingerprint identifies the spacing options a config was built with, so a
// change in spacing never serves stale geometry from the store.
func (o Options) fingerprint() string {
	return fmt.Sprintf("v1-%g-%g-%g-%g-%g-%g",
		o.TopY, o.PxPerSemitone, o.MinSpacing, o.MaxSpacing, o.OctaveBonus, o.ExtrapolatePxPerSemitone)
}

func (c *Configurator) storeKey(sig string) kv.Key {
	return kv.Key{storePrefix, c.opts.fingerprint(), sig}
}

// load fetches a config from the persistent tier. Any failure is treated as
// a miss.
func (c *Configurator) load(ctx context.Context, sig string) (*Config, bool) {
	if c.opts.Store == nil {
		return nil, false
	}
	data, err := c.opts.Store.Get(ctx, c.storeKey(sig))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			c.opts.Logger.Warn("stringcfg: store get failed", "signature", sig, "error", err)
		}
		return nil, false
	}
	cfg, err := decodeConfig(data)
	if err != nil || cfg.signature != sig {
		c.opts.Logger.Warn("stringcfg: discarding malformed stored config", "signature", sig, "error", err)
		return nil, false
	}
	return cfg, true
}

// save writes a freshly built config to the persistent tier. Failures are
// logged and otherwise ignored; the in-process cache still holds the config.
func (c *Configurator) save(ctx context.Context, cfg *Config) {
	if c.opts.Store == nil {
		return
	}
	data, err := encodeConfig(cfg)
	if err == nil {
		err = c.opts.Store.Set(ctx, c.storeKey(cfg.signature), data)
	}
	if err != nil {
		c.opts.Logger.Warn("stringcfg: store set failed", "signature", cfg.signature, "error", err)
	}
}

func encodeConfig(cfg *Config) ([]byte, error) {
	rec := record{
		Signature:   cfg.signature,
		Extrapolate: cfg.extrapolatePx,
		Strings:     make([]recordString, len(cfg.entries)),
	}
	for i, e := range cfg.entries {
		rec.Strings[i] = recordString{Pitch: e.Pitch.String(), Y: e.Y}
	}
	return msgpack.Marshal(rec)
}

func decodeConfig(data []byte) (*Config, error) {
	var rec record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if len(rec.Strings) == 0 {
		return nil, errors.New("empty config")
	}
	cfg := &Config{
		signature:     rec.Signature,
		extrapolatePx: rec.Extrapolate,
		entries:       make([]Entry, len(rec.Strings)),
	}
	for i, s := range rec.Strings {
		p, err := music.ParsePitch(s.Pitch)
		if err != nil {
			return nil, err
		}
		if i > 0 && s.Y <= cfg.entries[i-1].Y {
			return nil, fmt.Errorf("string %d y %g not above previous string", i+1, s.Y)
		}
		cfg.entries[i] = Entry{String: i + 1, Pitch: p, ScaleValue: p.ScaleValue(), Y: s.Y}
	}
	return cfg, nil
}
