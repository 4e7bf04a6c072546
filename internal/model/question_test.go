package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogCoversRequestFieldsInOrder(t *testing.T) {
	catalog := DefaultCatalog()
	require.NoError(t, catalog.Validate())
	require.Equal(t, len(RequestFields), catalog.Len())

	for i, q := range catalog {
		assert.Equal(t, RequestFields[i], q.ID)
		assert.NotEmpty(t, q.Prompt)
	}
	assert.True(t, catalog.IsLast(catalog.Len()-1))
	assert.False(t, catalog.IsLast(0))
}

func TestCatalogAt(t *testing.T) {
	catalog := DefaultCatalog()

	q, ok := catalog.At(0)
	require.True(t, ok)
	assert.Equal(t, FieldTask, q.ID)

	_, ok = catalog.At(-1)
	assert.False(t, ok)
	_, ok = catalog.At(catalog.Len())
	assert.False(t, ok)
}

func TestCatalogValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		wantErr string
	}{
		{name: "empty", catalog: Catalog{}, wantErr: "no questions"},
		{name: "missing id", catalog: Catalog{{Prompt: "?"}}, wantErr: "has no id"},
		{name: "unknown id", catalog: Catalog{{ID: "mood", Prompt: "?"}}, wantErr: "not a request field"},
		{name: "duplicate", catalog: Catalog{{ID: FieldTask, Prompt: "a"}, {ID: FieldTask, Prompt: "b"}}, wantErr: "duplicate"},
		{name: "missing prompt", catalog: Catalog{{ID: FieldTone}}, wantErr: "has no prompt"},
		{name: "subset is fine", catalog: Catalog{{ID: FieldTask, Prompt: "What?"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewPromptRequestFillsEverySchemaKey(t *testing.T) {
	req := NewPromptRequest(AnswerSet{
		FieldTask: "X",
		"unknown": "dropped",
	})

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"task":"X","audience":"","tone":"","include":"","avoid":"","format":"","context":""}`, string(data))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 7)
	assert.NotContains(t, decoded, "unknown")
}

func TestPromptRequestFieldsKeepWireOrder(t *testing.T) {
	req := PromptRequest{Task: "t", Audience: "a", Tone: "o", Include: "i", Avoid: "v", Format: "f", Context: "c"}

	fields := req.Fields()
	require.Len(t, fields, 7)
	for i, f := range fields {
		assert.Equal(t, RequestFields[i], f.Key)
	}
	assert.Equal(t, "TASK", fields[0].Label)
	assert.Equal(t, "c", fields[6].Value)
}

func TestAnswerSetClone(t *testing.T) {
	a := AnswerSet{FieldTask: "one"}
	b := a.Clone()
	b[FieldTask] = "two"

	assert.Equal(t, "one", a[FieldTask])
}

func TestNewSessionView(t *testing.T) {
	catalog := DefaultCatalog()
	s := &Session{ID: "s1", Index: 2, Answers: AnswerSet{FieldTask: "x"}, Lifecycle: LifecycleCollecting}

	v := NewSessionView(s, catalog)
	assert.Equal(t, "Question 3 of 7", v.Progress)
	assert.Equal(t, 7, v.Total)
	require.NotNil(t, v.Question)
	assert.Equal(t, FieldTone, v.Question.ID)

	v.Answers[FieldTask] = "changed"
	assert.Equal(t, "x", s.Answers[FieldTask])
}
