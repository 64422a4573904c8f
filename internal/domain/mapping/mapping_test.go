package mapping_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/vigia/internal/domain/mapping"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given category spellings", t, func() {
		Convey("Then case, accents and spacing should not matter", func() {
			So(mapping.Normalize("Educação"), ShouldEqual, "educacao")
			So(mapping.Normalize("  SEGURANÇA   Pública "), ShouldEqual, "seguranca publica")
			So(mapping.Normalize("saude"), ShouldEqual, mapping.Normalize("Saúde"))
			So(mapping.Normalize(""), ShouldEqual, "")
		})
	})
}

func TestTableResolve(t *testing.T) {
	Convey("Given a table built from pairs", t, func() {
		table := mapping.New(map[string]string{
			"education": "education",
			"Ensino":    "education",
			"saúde":     "health",
		})

		Convey("When resolving known categories", func() {
			So(table.Resolve("education"), ShouldEqual, "education")
			So(table.Resolve("ENSINO"), ShouldEqual, "education")
			So(table.Resolve("saude"), ShouldEqual, "health")
		})

		Convey("When resolving an unknown category", func() {
			Convey("Then it should degrade to unmapped instead of failing", func() {
				So(table.Resolve("pesca"), ShouldEqual, mapping.Unmapped)
				So(table.Resolve(""), ShouldEqual, mapping.Unmapped)
			})
		})

		Convey("When resolving repeatedly", func() {
			Convey("Then it should be pure", func() {
				for i := 0; i < 10; i++ {
					So(table.Resolve("Ensino"), ShouldEqual, "education")
				}
				So(table.Len(), ShouldEqual, 3)
				So(table.Categories(), ShouldResemble, []string{"education", "ensino", "saude"})
			})
		})

		Convey("When two spellings collapse to one key", func() {
			tbl := mapping.New(map[string]string{"Saúde": "health", "saude": "care"})

			Convey("Then the smaller priority id should win deterministically", func() {
				So(tbl.Resolve("saude"), ShouldEqual, "care")
			})
		})
	})

	Convey("Given a nil table", t, func() {
		var table *mapping.Table
		So(table.Resolve("education"), ShouldEqual, mapping.Unmapped)
	})
}

func TestTableLoading(t *testing.T) {
	Convey("Given the builtin table", t, func() {
		table := mapping.Default()

		Convey("Then it should map Portuguese and English categories", func() {
			So(table.Resolve("Educação"), ShouldEqual, "education")
			So(table.Resolve("education"), ShouldEqual, "education")
			So(table.Resolve("SUS"), ShouldEqual, "health")
			So(table.Resolve("meio ambiente"), ShouldEqual, "environment")
			So(table.Resolve("combate a corrupcao"), ShouldEqual, "transparency")
		})
	})

	Convey("Given a YAML mapping file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "mapping.yaml")

		Convey("When the file is valid", func() {
			So(os.WriteFile(path, []byte("categories:\n  health: [saúde, hospitais]\n  education: [escolas]\n"), 0o600), ShouldBeNil)
			table, err := mapping.LoadFile(path)

			Convey("Then it should resolve its categories", func() {
				So(err, ShouldBeNil)
				So(table.Resolve("Hospitais"), ShouldEqual, "health")
				So(table.Resolve("escolas"), ShouldEqual, "education")
				So(table.Resolve("ensino"), ShouldEqual, mapping.Unmapped)
			})
		})

		Convey("When one category maps to two priorities", func() {
			_, err := mapping.Parse([]byte("categories:\n  health: [saude]\n  care: [Saúde]\n"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "mapped to both")
		})

		Convey("When a priority id is reserved", func() {
			_, err := mapping.Parse([]byte("categories:\n  unmapped: [x]\n"))
			So(err, ShouldNotBeNil)
		})

		Convey("When the YAML is malformed", func() {
			_, err := mapping.Parse([]byte("categories: [oops"))
			So(err, ShouldNotBeNil)
		})

		Convey("When the file does not exist", func() {
			_, err := mapping.LoadFile(filepath.Join(dir, "missing.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}
