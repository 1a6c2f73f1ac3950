package tools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Invoke(t *testing.T) {
	reg := NewRegistry(Tool{
		Name:        "echo",
		Description: "echoes its input",
		Run: func(args map[string]interface{}) (interface{}, error) {
			return args["text"], nil
		},
	})

	out, err := reg.Invoke("echo", map[string]interface{}{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestRegistry_UnknownTool(t *testing.T) {
	reg := Builtins()

	_, err := reg.Invoke("launch_rockets", nil)
	require.Error(t, err)

	var unknown *UnknownToolError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "launch_rockets", unknown.Name)
}

func TestRegistry_Describe(t *testing.T) {
	desc := Builtins().Describe()
	assert.Contains(t, desc, "calculator")
	assert.Contains(t, desc, "clock")
	assert.Contains(t, desc, "convert_temperature")
}

func TestCalculator(t *testing.T) {
	calc := Calculator()

	cases := []struct {
		expr string
		want float64
	}{
		{"2 + 2", 4},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"sqrt(144)", 12},
		{"sqrt(16) + 1", 5},
		{"abs(-3.5)", 3.5},
		{"-2 * -3", 6},
		{"10 / 4", 2.5},
	}
	for _, tc := range cases {
		out, err := calc.Run(map[string]interface{}{"expression": tc.expr})
		require.NoError(t, err, tc.expr)
		assert.InDelta(t, tc.want, out.(float64), 1e-9, tc.expr)
	}
}

func TestCalculator_Pi(t *testing.T) {
	out, err := Calculator().Run(map[string]interface{}{"expression": "2 * pi"})
	require.NoError(t, err)
	assert.InDelta(t, 6.283185, out.(float64), 1e-5)
}

func TestCalculator_Errors(t *testing.T) {
	calc := Calculator()

	_, err := calc.Run(map[string]interface{}{})
	assert.Error(t, err)

	_, err = calc.Run(map[string]interface{}{"expression": "1 / 0"})
	assert.Error(t, err)

	_, err = calc.Run(map[string]interface{}{"expression": "2 +"})
	assert.Error(t, err)

	_, err = calc.Run(map[string]interface{}{"expression": "nope(3)"})
	assert.Error(t, err)
}

func TestTemperatureConverter(t *testing.T) {
	out, err := TemperatureConverter().Run(map[string]interface{}{"celsius": 25.0})
	require.NoError(t, err)

	result := out.(map[string]interface{})
	assert.Equal(t, 25.0, result["celsius"])
	assert.Equal(t, 77.0, result["fahrenheit"])
	assert.Equal(t, 298.15, result["kelvin"])
}

func TestClock(t *testing.T) {
	out, err := Clock().Run(nil)
	require.NoError(t, err)

	result := out.(map[string]interface{})
	assert.NotEmpty(t, result["date"])
	assert.NotEmpty(t, result["day"])
}
