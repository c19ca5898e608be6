package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-areas/internal/areas"
)

func TestPageRecord_MarshalJSON(t *testing.T) {
	list := []areas.Area{{Name: "Hole"}, {Name: "Depth"}, {Name: "Description"}}
	rec := NewPageRecord(4, list)
	rec.Set("Hole", []string{"BH-1"})
	rec.Set("Description", []string{"Silty CLAY", "SAND"})

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"pageNumber":4,"Hole":["BH-1"],"Depth":[],"Description":["Silty CLAY","SAND"]}`,
		string(data))
}

func TestPageRecord_MarshalJSON_MultiPageAndScalars(t *testing.T) {
	rec := PageRecord{
		Pages:   []int{1, 2},
		Values:  map[string][]string{"Hole": {"BH-1"}, "Description": {"Clay", "Sand"}},
		Scalars: map[string]string{"Description": "Clay Sand"},
		order:   []string{"Hole", "Description"},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"pageNumber":[1,2],"Hole":["BH-1"],"Description":"Clay Sand"}`, string(data))
}

func TestPageRecord_SetKeepsOrder(t *testing.T) {
	rec := NewPageRecord(1, []areas.Area{{Name: "A"}})
	rec.Set("B", []string{"x"})
	rec.Set("A", nil)

	assert.Equal(t, []string{"A", "B"}, rec.Fields())
	assert.Equal(t, []string{}, rec.Value("A"))

	_, ok := rec.Scalar("A")
	assert.False(t, ok)
}

func TestConsolidate(t *testing.T) {
	list := []areas.Area{
		{Name: "Hole", Order: 1, Type: areas.FieldIdentifier},
		{Name: "Depth", Order: 2, Type: areas.FieldDepth},
		{Name: "Description", Order: 3, Type: areas.FieldDescription, Merge: true},
	}
	page := func(n int, hole string, depth, desc []string) PageRecord {
		rec := NewPageRecord(n, list)
		rec.Set("Hole", []string{hole})
		rec.Set("Depth", depth)
		rec.Set("Description", desc)
		return *rec
	}

	records := []PageRecord{
		page(1, "BH-1", []string{"0.5"}, []string{"Topsoil"}),
		page(2, "BH-2", []string{"1.0"}, []string{"Clay"}),
		page(3, "BH-1", []string{"2.0"}, []string{"Sandy", "gravel"}),
	}

	out := Consolidate(records, list)
	require.Len(t, out, 2)

	assert.Equal(t, []int{1, 3}, out[0].Pages)
	assert.Equal(t, []string{"BH-1"}, out[0].Value("Hole"))
	assert.Equal(t, []string{"0.5", "2.0"}, out[0].Value("Depth"))
	desc, ok := out[0].Scalar("Description")
	require.True(t, ok)
	assert.Equal(t, "Topsoil Sandy gravel", desc)

	assert.Equal(t, []int{2}, out[1].Pages)
	desc, _ = out[1].Scalar("Description")
	assert.Equal(t, "Clay", desc)

	data, err := json.Marshal(out[0])
	require.NoError(t, err)
	assert.Equal(t,
		`{"pageNumber":[1,3],"Hole":["BH-1"],"Depth":["0.5","2.0"],"Description":"Topsoil Sandy gravel"}`,
		string(data))
}

func TestConsolidate_WithoutIdentifier(t *testing.T) {
	list := []areas.Area{{Name: "Description", Order: 1}}
	rec := NewPageRecord(1, list)
	rec.Set("Description", []string{"Clay"})
	records := []PageRecord{*rec}

	assert.Equal(t, records, Consolidate(records, list))
}

func TestParsePageSet(t *testing.T) {
	tests := []struct {
		input   string
		want    []int
		wantErr bool
	}{
		{input: "", want: []int{}},
		{input: "3", want: []int{3}},
		{input: "1,3-5", want: []int{1, 3, 4, 5}},
		{input: " 7 , 2 - 3 ,2", want: []int{2, 3, 7}},
		{input: "5-5", want: []int{5}},
		{input: "0", wantErr: true},
		{input: "4-2", wantErr: true},
		{input: "a-b", wantErr: true},
		{input: "1,x", wantErr: true},
		{input: "1-50000000", wantErr: true},
		{input: "100001", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			got, err := ParsePageSet(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePageSet_BoundedExpansion(t *testing.T) {
	got, err := ParsePageSet("1-100000,1-100000,99999-100000")
	require.NoError(t, err)
	assert.Len(t, got, MaxPageNumber)
	assert.Equal(t, 1, got[0])
	assert.Equal(t, MaxPageNumber, got[len(got)-1])

	_, err = ParsePageSet("1-50000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds the limit")
}

// plainImage hides SubImage so Crop takes the copying path
type plainImage struct{ image.Image }

func TestCrop(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	src.Set(20, 10, color.RGBA{R: 255, A: 255})

	got, err := Crop(src, image.Rect(20, 10, 40, 30))
	require.NoError(t, err)
	assert.Equal(t, 20, got.Bounds().Dx())
	assert.Equal(t, 20, got.Bounds().Dy())

	copied, err := Crop(plainImage{src}, image.Rect(20, 10, 40, 30))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 20), copied.Bounds())
	r, _, _, _ := copied.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	clipped, err := Crop(src, image.Rect(90, 40, 150, 80))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(90, 40, 100, 50), clipped.Bounds())

	_, err = Crop(src, image.Rect(200, 200, 300, 300))
	assert.Error(t, err)

	_, err = Crop(nil, image.Rect(0, 0, 1, 1))
	assert.Error(t, err)
}

func TestExtractionError(t *testing.T) {
	err := &ExtractionError{Kind: KindPageProcessing, Page: 3, Area: "Log", Err: errBoom}

	assert.Equal(t, `[PAGE_PROCESSING_FAILURE on page 3 (area "Log"): boom]`, err.Error())
	assert.ErrorIs(t, err, ErrPageProcessing)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrCancelled)

	wrapped := fmt.Errorf("run: %w", err)
	assert.Equal(t, KindPageProcessing, KindOf(wrapped))
	assert.False(t, IsExpected(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
