package llmtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptflow/internal/prompt"
)

func TestRespond_Cycles(t *testing.T) {
	inv := Respond("one", "two")

	for _, want := range []string{"one", "two", "one"} {
		resp, err := inv.Generate(context.Background(), []prompt.Message{prompt.Human("hi")})
		require.NoError(t, err)
		assert.Equal(t, want, resp.Text)
	}
	assert.Equal(t, 3, inv.Calls())
}

func TestRespond_RequiresAText(t *testing.T) {
	assert.PanicsWithValue(t, "llmtest: Respond requires at least one text", func() {
		Respond()
	})
}

func TestFail(t *testing.T) {
	boom := errors.New("boom")
	inv := Fail(boom)

	_, err := inv.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}
