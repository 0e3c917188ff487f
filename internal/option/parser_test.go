package option

import "testing"

func TestParseGroupAcceptsEnumValues(t *testing.T) {
	for _, v := range []string{"2", "ci"} {
		ctx := NewContext(BuildSchema())
		if err := ParseGroup(ctx, 'n', "version="+v); err != nil {
			t.Errorf("ParseGroup(version=%s): %v", v, err)
		}
		if got := ctx.String('n', "version"); got != v {
			t.Errorf("String('n', \"version\") = %q, want %q", got, v)
		}
	}
}

func TestParseGroupRejectsValueOutsideEnum(t *testing.T) {
	ctx := NewContext(BuildSchema())
	if err := ParseGroup(ctx, 'n', "version=3"); err == nil {
		t.Errorf("ParseGroup(version=3) should fail: 3 is not in the version enum")
	}
}
