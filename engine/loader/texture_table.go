package loader

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-asset/common"
	"github.com/Carmen-Shannon/oxy-asset/engine/model"

	"github.com/pkg/errors"
)

// TextureTable maps material names to diffuse texture files.
type TextureTable map[string]string

// ParseTextureTable parses a texture table: one "material texture-file" pair per line,
// separated by whitespace. Blank lines and lines starting with '#' are skipped.
// Relative texture paths are resolved against baseDir.
//
// Parameters:
//   - r: the table source
//   - baseDir: the directory relative paths are resolved against
//
// Returns:
//   - TextureTable: the parsed table
//   - error: ErrMalformedElement on a line without a texture
func ParseTextureTable(r io.Reader, baseDir string) (TextureTable, error) {
	scanner := bufio.NewScanner(r)
	table := make(TextureTable)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, errors.Wrapf(ErrMalformedElement, "texture table line %d: %q", lineNo, line)
		}
		texture := strings.Join(fields[1:], " ")
		if !filepath.IsAbs(texture) && baseDir != "" {
			texture = filepath.Join(baseDir, texture)
		}
		table[fields[0]] = texture
	}

	return table, scanner.Err()
}

// LoadTextureTable reads and parses a texture table file. Relative texture paths are
// resolved against the table's directory.
//
// Parameters:
//   - path: the table file
//
// Returns:
//   - TextureTable: the parsed table
//   - error: ErrIOFailure if the file cannot be read
func LoadTextureTable(path string) (TextureTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "%v", err)
	}
	defer file.Close()

	return ParseTextureTable(file, filepath.Dir(path))
}

// Apply binds each listed material of the model to its diffuse texture.
// Materials are matched by name, then by their effect's texture reference.
//
// Parameters:
//   - imported: the model whose materials are updated
func (t TextureTable) Apply(imported *model.ImportedModel) {
	for i := range imported.Materials {
		mat := &imported.Materials[i]
		path, ok := t[mat.Name]
		if !ok && mat.TextureRef != "" {
			path, ok = t[mat.TextureRef]
		}
		if !ok {
			continue
		}
		mat.DiffuseTexturePath = path
		mat.DiffuseTexture = &common.ImportedTexture{Name: "diffuse", Path: path}
	}
}
