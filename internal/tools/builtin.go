package tools

import (
	"fmt"
	"math"
	"time"
)

// Builtins returns the demo tool set: a clock, an arithmetic calculator, and
// a temperature converter.
func Builtins() *Registry {
	return NewRegistry(Clock(), Calculator(), TemperatureConverter())
}

// Clock reports the current date and time.
func Clock() Tool {
	return Tool{
		Name:        "clock",
		Description: "Get the current date and time. Takes no arguments.",
		Run: func(args map[string]interface{}) (interface{}, error) {
			now := time.Now()
			return map[string]interface{}{
				"date": now.Format("2006-01-02"),
				"time": now.Format("15:04:05"),
				"day":  now.Weekday().String(),
			}, nil
		},
	}
}

// Calculator evaluates an arithmetic expression supplied as the
// "expression" argument, e.g. "2 + 2 * 3" or "sqrt(144)".
func Calculator() Tool {
	return Tool{
		Name:        "calculator",
		Description: `Evaluate a math expression like "2 + 2" or "sqrt(16)". Argument: expression (string).`,
		Run: func(args map[string]interface{}) (interface{}, error) {
			expr, ok := args["expression"].(string)
			if !ok || expr == "" {
				return nil, fmt.Errorf(`calculator: "expression" argument is required`)
			}
			val, err := evalExpression(expr)
			if err != nil {
				return nil, err
			}
			return val, nil
		},
	}
}

// TemperatureConverter converts the "celsius" argument to Fahrenheit and
// Kelvin.
func TemperatureConverter() Tool {
	return Tool{
		Name:        "convert_temperature",
		Description: "Convert Celsius to Fahrenheit and Kelvin. Argument: celsius (number).",
		Run: func(args map[string]interface{}) (interface{}, error) {
			celsius, ok := numberArg(args, "celsius")
			if !ok {
				return nil, fmt.Errorf(`convert_temperature: "celsius" argument is required`)
			}
			return map[string]interface{}{
				"celsius":    celsius,
				"fahrenheit": math.Round((celsius*9/5+32)*100) / 100,
				"kelvin":     math.Round((celsius+273.15)*100) / 100,
			}, nil
		},
	}
}

func numberArg(args map[string]interface{}, name string) (float64, bool) {
	switch v := args[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
