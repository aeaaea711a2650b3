package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResults(t *testing.T) {
	iphoto := MustNewResult("app:iphoto", "iPhoto", "application", nil, Attributes{AttrRank: 0.9})
	sim := MustNewResult("app:sim", "iPhone Simulator", "application", nil, Attributes{AttrRank: 0.4})
	manual := MustNewResult("doc:manual", "iPhone Manual.pdf", "document.pdf", nil, Attributes{AttrRank: 0.6})
	rs := Results{sim, manual, iphoto}

	t.Run("sort by rank", func(t *testing.T) {
		sorted := append(Results(nil), rs...)
		sorted.SortByRank()
		assert.Equal(t, []string{"app:iphoto", "doc:manual", "app:sim"}, sorted.URIs())
	})

	t.Run("sort is stable for equal rank", func(t *testing.T) {
		a := MustNewResult("a", "a", TypeText, nil, Attributes{AttrRank: 0.5})
		b := MustNewResult("b", "b", TypeText, nil, Attributes{AttrRank: 0.5})
		c := MustNewResult("c", "c", TypeText, nil, Attributes{AttrRank: 0.5})
		equal := Results{b, c, a}
		equal.SortByRank()
		assert.Equal(t, []string{"b", "c", "a"}, equal.URIs())
	})

	t.Run("by category", func(t *testing.T) {
		groups := rs.ByCategory()
		assert.Len(t, groups["application"], 2)
		assert.Len(t, groups["document"], 1)
		assert.Equal(t, []string{"application", "document"}, rs.Categories())
	})

	t.Run("filters", func(t *testing.T) {
		assert.Equal(t, []string{"doc:manual"}, rs.OfType("document.pdf").URIs())
		assert.Empty(t, rs.OfType("document"))
		assert.Equal(t, []string{"doc:manual"}, rs.Conforming("document").URIs())
		assert.Equal(t, []string{"app:sim", "app:iphoto"}, rs.ConformingToSet(NewTypeSet("application")).URIs())
		assert.Equal(t, []string{"doc:manual"}, rs.NotConformingToSet(NewTypeSet("application")).URIs())
	})

	t.Run("union keeps order and drops repeats", func(t *testing.T) {
		u := Results{iphoto}.Union(Results{manual, iphoto, sim})
		assert.Equal(t, []string{"app:iphoto", "doc:manual", "app:sim"}, u.URIs())
	})

	t.Run("display name", func(t *testing.T) {
		assert.Equal(t, "iPhoto", Results{iphoto}.DisplayName())
		assert.Equal(t, "iPhoto, iPhone Simulator", Results{iphoto, sim}.DisplayName())
	})
}

func TestTypes(t *testing.T) {
	tests := []struct {
		typ  string
		base string
		want bool
	}{
		{typ: "file.media.music", base: "file", want: true},
		{typ: "file.media.music", base: "file.media", want: true},
		{typ: "file.media.music", base: "file.media.music", want: true},
		{typ: "file.mediaplayer", base: "file.media", want: false},
		{typ: "file", base: "file.media", want: false},
		{typ: "contact", base: AnyType, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.base, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeConforms(tt.typ, tt.base))
		})
	}

	assert.Equal(t, "file.media.music", SubType(TypeFile, "media", "music"))
	assert.Equal(t, "webpage", Category(TypeWebBookmark))
	assert.Equal(t, []string{"contact", "file"}, NewTypeSet("file", "contact").Sorted())
}
