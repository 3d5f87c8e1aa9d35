package bitrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBase(t *testing.T) {
	tests := []struct {
		name      string
		base      string
		methodURL string
		expected  string
		wantErr   bool
	}{
		{name: "explicit base gets slash", base: "https://crm.example.com/rest/596/abc", expected: "https://crm.example.com/rest/596/abc/"},
		{name: "explicit base wins", base: "https://a.example.com/rest/1/x/", methodURL: "https://b.example.com/rest/2/y/crm.contact.list.json", expected: "https://a.example.com/rest/1/x/"},
		{name: "derived from method url", methodURL: "https://crm.example.com/rest/596/abc/crm.contact.list.json", expected: "https://crm.example.com/rest/596/abc/"},
		{name: "not a webhook url", methodURL: "https://crm.example.com/crm/contact/", wantErr: true},
		{name: "nothing configured", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBase(tt.base, tt.methodURL)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFlexID(t *testing.T) {
	var v struct {
		A FlexID `json:"a"`
		B FlexID `json:"b"`
		C FlexID `json:"c"`
		D FlexID `json:"d"`
	}
	require.NoError(t, jsonUnmarshal(`{"a":"12","b":34,"c":null,"d":""}`, &v))
	assert.Equal(t, FlexID(12), v.A)
	assert.Equal(t, FlexID(34), v.B)
	assert.Equal(t, FlexID(0), v.C)
	assert.Equal(t, FlexID(0), v.D)

	assert.Error(t, jsonUnmarshal(`{"a":"x1"}`, &v))
}

func TestDeal_FieldValues(t *testing.T) {
	var d Deal
	require.NoError(t, jsonUnmarshal(`{"ID":"1","UF_NUM":125000.5,"UF_EMPTY":"","UF_FALSE":false,"UF_NULL":null,"UF_LIST":["3"," ",4]}`, &d))

	assert.Equal(t, "125000.5", d.Field("UF_NUM"))
	assert.Nil(t, d.FieldValues("UF_EMPTY"))
	assert.Nil(t, d.FieldValues("UF_FALSE"))
	assert.Nil(t, d.FieldValues("UF_NULL"))
	assert.Equal(t, []string{"3", "4"}, d.FieldValues("UF_LIST"))
}
