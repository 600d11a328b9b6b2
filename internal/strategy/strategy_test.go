package strategy

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/internal/store"
	"github.com/wonny/papertrade/pkg/logger"
)

func TestValidate(t *testing.T) {
	bad := contracts.DefaultWeights()
	bad.ROCE = 0.12
	short := contracts.DefaultWeights()
	short.ROCE = 0.05
	nan := contracts.Weights{ROCE: math.NaN()}

	tests := []struct {
		name      string
		in        Input
		wantField string
	}{
		{"valid with defaults", Input{Name: "q", URL: "https://www.screener.in/screens/1/"}, ""},
		{"site relative url", Input{Name: "q", URL: "/screens/1/"}, ""},
		{"missing name", Input{URL: "https://www.screener.in/screens/1/"}, "name"},
		{"blank name", Input{Name: "   ", URL: "https://x.test/"}, "name"},
		{"missing url", Input{Name: "q"}, "url"},
		{"bad scheme", Input{Name: "q", URL: "ftp://x.test/"}, "url"},
		{"no host", Input{Name: "q", URL: "https:///screens"}, "url"},
		{"off-step weight", Input{Name: "q", URL: "/s/", Weights: &bad}, "weights.roce"},
		{"weights do not sum to one", Input{Name: "q", URL: "/s/", Weights: &short}, "weights"},
		{"nan weight", Input{Name: "q", URL: "/s/", Weights: &nan}, "weights.roce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func newService() (*Service, *store.Memory) {
	mem := store.NewMemory()
	return NewService(mem, logger.Nop()), mem
}

func TestService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService()

	created, err := svc.Create(ctx, Input{Name: "  Quality ", URL: "https://www.screener.in/screens/1/"})
	require.NoError(t, err)
	assert.Equal(t, "Quality", created.Name)
	assert.Nil(t, created.Weights)

	stored, err := mem.GetStrategy(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, contracts.DefaultWeights(), stored.EffectiveWeights())

	custom := contracts.Weights{ROCE: 0.5, InvertedPE: 0.5}
	updated, err := svc.Update(ctx, created.ID, Input{Name: "Quality", URL: "/screens/1/", Weights: &custom})
	require.NoError(t, err)
	assert.Equal(t, custom, *updated.Weights)

	// Rejected updates leave the row untouched
	bad := contracts.Weights{ROCE: 0.5}
	_, err = svc.Update(ctx, created.ID, Input{Name: "Quality", URL: "/screens/1/", Weights: &bad})
	assert.Error(t, err)
	stored, err = mem.GetStrategy(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, custom, *stored.Weights)

	_, err = svc.Update(ctx, uuid.New(), Input{Name: "x", URL: "/s/"})
	assert.True(t, errors.Is(err, contracts.ErrNotFound))
}

func TestService_CreateRejectsInvalid(t *testing.T) {
	svc, mem := newService()

	_, err := svc.Create(context.Background(), Input{Name: "no url"})
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "url", verr.Field)

	list, err := mem.ListStrategies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLoadFileAndImport(t *testing.T) {
	ctx := context.Background()
	defs, err := LoadFile("testdata/strategies.yaml")
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "Quality compounders", defs[0].Name)
	require.NotNil(t, defs[0].Weights)
	assert.Equal(t, 0.20, defs[0].Weights.ROCE3Yr)
	assert.InDelta(t, 1.0, defs[0].Weights.Sum(), contracts.WeightSumTolerance)
	assert.Nil(t, defs[1].Weights)

	svc, _ := newService()
	result, err := svc.Import(ctx, defs)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Created: 2}, result)

	// Re-import updates by name
	result, err = svc.Import(ctx, defs)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 2}, result)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown weight key",
			yaml: "strategies:\n  - name: a\n    url: /s/\n    weights:\n      roce3yr: 1.0\n",
		},
		{
			name: "invalid weights",
			yaml: "strategies:\n  - name: a\n    url: /s/\n    weights:\n      roce: 0.5\n",
		},
		{
			name: "nan weight",
			yaml: "strategies:\n  - name: a\n    url: /s/\n    weights:\n      roce: .nan\n",
		},
		{
			name: "infinite weight",
			yaml: "strategies:\n  - name: a\n    url: /s/\n    weights:\n      roce: .inf\n      roce_3yr: -.inf\n",
		},
		{
			name: "duplicate names",
			yaml: "strategies:\n  - name: a\n    url: /s/\n  - name: a\n    url: /t/\n",
		},
		{
			name: "missing url",
			yaml: "strategies:\n  - name: a\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
