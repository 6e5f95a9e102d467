package chromsizes

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Run("hg19", func(t *testing.T) {
		got, ok := Default("hg19")
		if !ok {
			t.Fatal("expected hg19 to be built in")
		}
		if len(got) != 25 {
			t.Fatalf("expected 25 entries, got %d", len(got))
		}
		if got[0] != (Chrom{"chr1", 249250621}) {
			t.Errorf("unexpected first entry: %#v", got[0])
		}
		if got[len(got)-1] != (Chrom{"chrM", 16569}) {
			t.Errorf("unexpected last entry: %#v", got[len(got)-1])
		}
	})

	t.Run("hg38", func(t *testing.T) {
		got, ok := Default("hg38")
		if !ok || len(got) != 25 {
			t.Fatalf("expected 25 hg38 entries, got %d (ok=%v)", len(got), ok)
		}
	})

	t.Run("mm10", func(t *testing.T) {
		got, ok := Default("mm10")
		if !ok || len(got) != 22 {
			t.Fatalf("expected 22 mm10 entries, got %d (ok=%v)", len(got), ok)
		}
		if got[len(got)-1] != (Chrom{"chrM", 16299}) {
			t.Errorf("unexpected last entry: %#v", got[len(got)-1])
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if got, ok := Default("unknown"); ok || got != nil {
			t.Fatalf("expected absent, got %#v", got)
		}
	})

	t.Run("returnsCopy", func(t *testing.T) {
		a, _ := Default("hg19")
		a[0].Value = 1
		b, _ := Default("hg19")
		if b[0].Value != 249250621 {
			t.Fatalf("built-in table was modified through returned slice")
		}
	})
}

func TestAssemblies(t *testing.T) {
	want := []string{"hg19", "hg38", "mm10"}
	if got := Assemblies(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCumulative(t *testing.T) {
	tests := []struct {
		name string
		in   []Chrom
		want []Chrom
	}{
		{"empty", []Chrom{}, []Chrom{}},
		{"single", []Chrom{{"a", 100}}, []Chrom{{"a", 0}}},
		{
			"three",
			[]Chrom{{"a", 100}, {"b", 200}, {"c", 150}},
			[]Chrom{{"a", 0}, {"b", 100}, {"c", 300}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := append([]Chrom(nil), tc.in...)
			got := Cumulative(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if len(in) > 0 && !reflect.DeepEqual(in, tc.in) {
				t.Fatalf("input was mutated: %v", tc.in)
			}
		})
	}
}

func TestCumulative_HG19Offsets(t *testing.T) {
	hg19, _ := Default("hg19")
	cum := Cumulative(hg19)
	if cum[1].Value != 249250621 || cum[2].Value != 492449994 {
		t.Fatalf("unexpected offsets: %v", cum[:3])
	}
	if got := Total(hg19); got != cum[len(cum)-1].Value+16569 {
		t.Fatalf("total %d does not match last offset plus chrM", got)
	}
}

func TestParseTSV(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		in := "# comment\nchr1\t1000\n\nchr2\t500\n"
		got, err := ParseTSV(strings.NewReader(in))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []Chrom{{"chr1", 1000}, {"chr2", 500}}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		if _, err := ParseTSV(strings.NewReader("chr1\t1\nchr1\t2\n")); err == nil {
			t.Fatal("expected duplicate chromosome error")
		}
	})

	t.Run("badLength", func(t *testing.T) {
		if _, err := ParseTSV(strings.NewReader("chr1\tabc\n")); err == nil {
			t.Fatal("expected invalid length error")
		}
	})

	t.Run("missingColumn", func(t *testing.T) {
		if _, err := ParseTSV(strings.NewReader("chr1\n")); err == nil {
			t.Fatal("expected missing column error")
		}
	})
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTSV(&buf, []Chrom{{"chr1", 249250621}, {"chr2", 243199373}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := buf.String(), "chr1\t249250621\nchr2\t243199373"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestChromJSON(t *testing.T) {
	data, err := json.Marshal([]Chrom{{"chr1", 10}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[["chr1",10]]` {
		t.Fatalf("unexpected encoding: %s", data)
	}

	var back []Chrom
	if err := json.Unmarshal([]byte(`[["chrX",155270560]]`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[0] != (Chrom{"chrX", 155270560}) {
		t.Fatalf("unexpected decode: %#v", back[0])
	}

	if err := json.Unmarshal([]byte(`[["chrX"]]`), &back); err == nil {
		t.Fatal("expected error for short entry")
	}
}
