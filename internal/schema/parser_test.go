package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func companySchema() *Schema {
	return New("Company",
		Field{Name: "name", Type: TypeString, Description: "Company name", Required: true},
		Field{Name: "employees", Type: TypeInt, Description: "Number of employees", Required: true},
		Field{Name: "motto", Type: TypeString, Description: "Company motto"},
		Field{Name: "headquarters", Type: TypeObject, Required: true, Nested: New("Address",
			Field{Name: "street", Type: TypeString},
			Field{Name: "city", Type: TypeString, Required: true},
			Field{Name: "country", Type: TypeString},
		)},
	)
}

func TestParser_NestedSchema(t *testing.T) {
	p := NewParser(companySchema())

	result, err := p.Parse(`{"name":"Acme","employees":2500,"headquarters":{"city":"Reno"}}`)
	require.NoError(t, err)

	assert.Equal(t, "Acme", result["name"])
	assert.Equal(t, 2500, result["employees"])
	assert.Equal(t, Absent, result["motto"])

	hq := result.Nested("headquarters")
	require.NotNil(t, hq)
	assert.Equal(t, "Reno", hq["city"])
	assert.Equal(t, Absent, hq["street"])
}

func TestParser_MarkdownFence(t *testing.T) {
	p := NewParser(New("Answer",
		Field{Name: "answer", Type: TypeString, Required: true},
	))

	text := "Here you go:\n```json\n{\"answer\": \"42\"}\n```\nLet me know if you need more."
	result, err := p.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "42", result["answer"])
}

func TestParser_MissingRequiredField(t *testing.T) {
	p := NewParser(companySchema())

	_, err := p.Parse(`{"name":"Acme","headquarters":{"city":"Reno"}}`)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Reason, "employees")
	assert.NotEmpty(t, perr.Raw)
}

func TestParser_TypeMismatch(t *testing.T) {
	p := NewParser(companySchema())

	_, err := p.Parse(`{"name":"Acme","employees":"lots","headquarters":{"city":"Reno"}}`)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Reason, "employees")
}

func TestParser_IntRejectsFraction(t *testing.T) {
	p := NewParser(New("S", Field{Name: "n", Type: TypeInt, Required: true}))

	_, err := p.Parse(`{"n": 2.5}`)
	assert.Error(t, err)
}

func TestParser_ListsAndBools(t *testing.T) {
	p := NewParser(New("Profile",
		Field{Name: "tags", Type: TypeStringList, Required: true},
		Field{Name: "active", Type: TypeBool, Required: true},
		Field{Name: "score", Type: TypeFloat, Required: true},
	))

	result, err := p.Parse(`{"tags":["go","llm"],"active":true,"score":0.93}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "llm"}, result["tags"])
	assert.Equal(t, true, result["active"])
	assert.Equal(t, 0.93, result["score"])
}

func TestParser_RepairsNearJSON(t *testing.T) {
	p := NewParser(New("S",
		Field{Name: "city", Type: TypeString, Required: true},
	))

	// Trailing comma plus missing close brace.
	result, err := p.Parse(`{"city": "Reno",`)
	require.NoError(t, err)
	assert.Equal(t, "Reno", result["city"])
}

func TestParser_NoJSONAtAll(t *testing.T) {
	p := NewParser(companySchema())

	_, err := p.Parse("I'm sorry, I can't answer that.")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Reason, "no JSON object")
}

func TestParser_RoundTrip(t *testing.T) {
	s := companySchema()
	value := map[string]interface{}{
		"name":      "Acme",
		"employees": 2500,
		"motto":     "dig faster",
		"headquarters": map[string]interface{}{
			"street":  "123 Innovation Drive",
			"city":    "Reno",
			"country": "USA",
		},
	}

	serialized, err := json.Marshal(value)
	require.NoError(t, err)

	result, err := NewParser(s).Parse(string(serialized))
	require.NoError(t, err)

	assert.Equal(t, "Acme", result["name"])
	assert.Equal(t, 2500, result["employees"])
	assert.Equal(t, "dig faster", result["motto"])
	hq := result.Nested("headquarters")
	assert.Equal(t, "123 Innovation Drive", hq["street"])
	assert.Equal(t, "Reno", hq["city"])
	assert.Equal(t, "USA", hq["country"])
}

func TestListParser(t *testing.T) {
	var p ListParser

	items, err := p.Parse("Python, JavaScript, Go")
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, []string{"Python", "JavaScript", "Go"}, items)
	assert.Equal(t, "Python", items[0])
}

func TestListParser_TrimsAndDropsEmpties(t *testing.T) {
	var p ListParser

	items, err := p.Parse("  apples ,, bananas , ")
	require.NoError(t, err)
	assert.Equal(t, []string{"apples", "bananas"}, items)
}

func TestListParser_EmptyFails(t *testing.T) {
	var p ListParser

	_, err := p.Parse("   ")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Reason, "empty list")
}

func TestSchema_FormatInstructions(t *testing.T) {
	instructions := companySchema().FormatInstructions()

	assert.Contains(t, instructions, `"name"`)
	assert.Contains(t, instructions, `"headquarters"`)
	assert.Contains(t, instructions, `"city"`)
	assert.Contains(t, instructions, "JSON")
}

func TestSchema_Validate(t *testing.T) {
	require.NoError(t, companySchema().Validate())

	bad := New("Bad", Field{Name: "x", Type: TypeObject})
	assert.Error(t, bad.Validate())
}
