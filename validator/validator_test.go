package validator

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           xmlns:s="https://semanticdatacharter.com/ns/sdc4/"
           targetNamespace="https://semanticdatacharter.com/ns/sdc4/"
           elementFormDefault="unqualified">
  <xs:element name="dm-t1">
    <xs:complexType>
      <xs:sequence>
        <xs:element ref="s:ms-abc123"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
  <xs:element name="ms-abc123">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="xdcount-value" type="xs:integer"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func testOracle(t *testing.T) *XSDOracle {
	t.Helper()
	fsys := fstest.MapFS{
		"dm-t1.xsd": &fstest.MapFile{Data: []byte(testSchema)},
	}
	oracle, err := NewXSDOracle(fsys, "dm-t1.xsd", nil)
	require.NoError(t, err)
	return oracle
}

func TestXSDOracleValid(t *testing.T) {
	oracle := testOracle(t)

	result, err := oracle.Validate(`<?xml version="1.0"?>
<s:dm-t1 xmlns:s="https://semanticdatacharter.com/ns/sdc4/">
  <s:ms-abc123><xdcount-value>42</xdcount-value></s:ms-abc123>
</s:dm-t1>`)
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.InvalidComponents)
}

func TestXSDOracleInvalidValue(t *testing.T) {
	oracle := testOracle(t)

	result, err := oracle.Validate(`<?xml version="1.0"?>
<s:dm-t1 xmlns:s="https://semanticdatacharter.com/ns/sdc4/">
  <s:ms-abc123><xdcount-value>notanumber</xdcount-value></s:ms-abc123>
</s:dm-t1>`)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Contains(t, result.Errors, "abc123")
	assert.Contains(t, result.InvalidComponents, "abc123")
}

func TestComponentCTID(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			"innermost ms step wins",
			"/{https://semanticdatacharter.com/ns/sdc4/}dm-x/{https://semanticdatacharter.com/ns/sdc4/}ms-cl01aaa/{https://semanticdatacharter.com/ns/sdc4/}ms-abc123/xdcount-value",
			"abc123",
		},
		{"plain path", "/dm-x/ms-abc123", "abc123"},
		{"no component step", "/dm-x/creation_timestamp", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComponentCTID(tt.path))
		})
	}
}
