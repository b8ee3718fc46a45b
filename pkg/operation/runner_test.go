// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

type funcOperation struct {
	name string
	fn   func(ctx context.Context) error
}

func (f *funcOperation) Name() string                      { return f.name }
func (f *funcOperation) Execute(ctx context.Context) error { return f.fn(ctx) }

func TestRunner(t *testing.T) {
	tests := []struct {
		name    string
		async   bool
		fn      func(ctx context.Context) error
		cancel  bool
		wantErr string
	}{
		{
			name: "sync_success",
			fn:   func(ctx context.Context) error { return nil },
		},
		{
			name:    "sync_error",
			fn:      func(ctx context.Context) error { return errors.New("boom") },
			wantErr: "boom",
		},
		{
			name:  "async_success",
			async: true,
			fn:    func(ctx context.Context) error { return nil },
		},
		{
			name:  "async_cancelled",
			async: true,
			fn: func(ctx context.Context) error {
				select {}
			},
			cancel:  true,
			wantErr: "operation cancelled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			r := NewRunner(zerolog.New(&logs).Level(zerolog.DebugLevel), tt.async)

			var runID string
			op := &funcOperation{name: tt.name, fn: func(ctx context.Context) error {
				runID = "seen"
				return tt.fn(ctx)
			}}

			ctx, cancel := context.WithCancel(context.Background())
			if tt.cancel {
				cancel()
			} else {
				defer cancel()
			}

			err := r.Run(ctx, op)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "seen", runID)
			}
			assert.Contains(t, logs.String(), `"run_id":"`)
			assert.Contains(t, logs.String(), `"operation":"`+tt.name+`"`)
		})
	}
}

func TestRunnerLoggerInContext(t *testing.T) {
	var logs bytes.Buffer
	r := NewRunner(zerolog.New(&logs), false)

	err := r.Run(context.Background(), &funcOperation{name: "probe", fn: func(ctx context.Context) error {
		zerolog.Ctx(ctx).Info().Msg("from inside")
		return nil
	}})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), `"operation":"probe","message":"from inside"`)
}
