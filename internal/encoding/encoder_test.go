package encoding

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSONRoundTrip(t *testing.T) {
	type payload struct {
		Org    string  `json:"org"`
		Score  float64 `json:"score"`
		Labels []string `json:"labels"`
	}

	in := payload{Org: "acme", Score: 0.82, Labels: []string{"hot", "preparing"}}

	data, err := MarshalJSON(in)
	require.NoError(t, err)
	assert.Equal(t, `{"org":"acme","score":0.82,"labels":["hot","preparing"]}`, string(data))

	var out payload
	require.NoError(t, UnmarshalJSON(data, &out))
	assert.Equal(t, in, out)
}

func TestMarshalJSONNoTrailingNewline(t *testing.T) {
	data, err := MarshalJSON(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.NotEqual(t, byte('\n'), data[len(data)-1])
}

func TestMarshalJSONDoesNotEscapeHTML(t *testing.T) {
	data, err := MarshalJSON(map[string]string{"evidence": "<i18n>"})
	require.NoError(t, err)
	assert.Equal(t, `{"evidence":"<i18n>"}`, string(data))
}

func TestMarshalJSONConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				data, err := MarshalJSON(map[string]int{"worker": n, "iter": j})
				assert.NoError(t, err)
				var out map[string]int
				assert.NoError(t, UnmarshalJSON(data, &out))
				assert.Equal(t, n, out["worker"])
			}
		}(i)
	}
	wg.Wait()
}
