package repository

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/retention"
)

func sinkNames(c *Chain) []string {
	return lo.Map(c.Sinks(), func(s Sink, _ int) string { return s.Repo.Name() })
}

func TestOpen(t *testing.T) {
	s := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name     string
		opts     Options
		want     []string
		required bool
	}{
		{
			name: "local",
			opts: Options{DataFile: filepath.Join(dir, "a.json")},
			want: []string{"file", "memory"},
		},
		{
			name: "memory only",
			opts: Options{},
			want: []string{"memory"},
		},
		{
			name: "hybrid",
			opts: Options{
				Redis:      RedisConfig{URL: "redis://" + s.Addr() + "/0"},
				DataFile:   filepath.Join(dir, "b.json"),
				SQLitePath: filepath.Join(dir, "b.db"),
			},
			want: []string{"redis", "sqlite", "file", "memory"},
		},
		{
			name:     "remote only",
			opts:     Options{Redis: RedisConfig{Addr: s.Addr()}, RemoteOnly: true, DataFile: filepath.Join(dir, "c.json")},
			want:     []string{"redis"},
			required: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Policy = retention.Default()
			chain, err := Open(tt.opts)
			if err != nil {
				t.Fatalf("Open error: %v", err)
			}
			defer chain.Shutdown()
			if diff := cmp.Diff(tt.want, sinkNames(chain)); diff != "" {
				t.Errorf("sinks mismatch (-want +got):\n%s", diff)
			}
			if chain.Sinks()[0].Required != tt.required {
				t.Errorf("first sink Required = %v; want %v", chain.Sinks()[0].Required, tt.required)
			}
		})
	}
}

func TestOpenRemoteOnlyWithoutRedis(t *testing.T) {
	_, err := Open(Options{RemoteOnly: true})
	if !errors.Is(err, entity.ErrNotConfigured) {
		t.Fatalf("Open error = %v; want ErrNotConfigured", err)
	}
}

func TestOpenPingsRedis(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := Open(Options{Redis: RedisConfig{Addr: addr}, RemoteOnly: true, RedisTimeout: time.Second})
	if !errors.Is(err, entity.ErrBackendUnavailable) {
		t.Fatalf("remote-only Open error = %v; want ErrBackendUnavailable", err)
	}

	chain, err := Open(Options{Redis: RedisConfig{Addr: addr}, RedisTimeout: time.Second})
	if err != nil {
		t.Fatalf("hybrid Open error: %v", err)
	}
	defer chain.Shutdown()
	if diff := cmp.Diff([]string{"redis", "memory"}, sinkNames(chain)); diff != "" {
		t.Errorf("sinks mismatch (-want +got):\n%s", diff)
	}
}
