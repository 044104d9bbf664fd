package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/logger"
	"github.com/flanksource/gomplate/v3"
)

const templateExt = ".tmpl"

var extensionsRe = regexp.MustCompile(`\..+$`)

// Case is a single fixture directory under a root directory.
type Case struct {
	Root string `json:"root"`
	Dir  string `json:"dir"`
	// Name is what test reports show: "<root> <dir>"
	Name string `json:"name"`
	Path string `json:"path"`
}

func newCase(root, dir string) Case {
	return Case{
		Root: root,
		Dir:  dir,
		Name: fmt.Sprintf("%s %s", root, dir),
		Path: filepath.Join(root, dir),
	}
}

// Key returns the data key for a fixture file name: everything from the first dot is dropped.
func Key(fileName string) string {
	return extensionsRe.ReplaceAllString(fileName, "")
}

// ReadCaseDirs returns the names of the immediate sub-directories of root, sorted.
// Hidden directories are skipped.
func ReadCaseDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read case root %s: %w", root, err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dirs = append(dirs, entry.Name())
	}
	return dirs, nil
}

// Discover lists the cases under root. A non-empty filter is a glob matched
// against the case directory name.
func Discover(root, filter string) ([]Case, error) {
	dirs, err := ReadCaseDirs(root)
	if err != nil {
		return nil, err
	}

	var cases []Case
	for _, dir := range dirs {
		if filter != "" {
			match, err := doublestar.Match(filter, dir)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern '%s': %w", filter, err)
			}
			if !match {
				continue
			}
		}
		cases = append(cases, newCase(root, dir))
	}

	if filter != "" {
		logger.Debugf("Filtered to %d/%d cases matching '%s' in %s", len(cases), len(dirs), filter, root)
	}
	return cases, nil
}

// Loader reads fixture files into Data.
type Loader struct {
	// Formats used to decode files, DefaultRegistry when nil
	Formats *Registry
	// TemplateData is the context for .tmpl files
	TemplateData Data
}

// ReadCaseData loads every regular file of root/dir (dir "" is root itself) using the default loader.
func ReadCaseData(root, dir string) (Data, error) {
	return Loader{}.ReadCaseData(root, dir)
}

// ReadCaseData loads every regular file of root/dir. Sub-directories are ignored.
func (l Loader) ReadCaseData(root, dir string) (Data, error) {
	path := filepath.Join(root, dir)
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures in %s: %w", path, err)
	}

	data := Data{}
	sources := map[string]string{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		key := Key(entry.Name())
		if prev, exists := sources[key]; exists {
			return nil, fmt.Errorf("fixtures %s and %s in %s both load as '%s'", prev, entry.Name(), path, key)
		}

		value, err := l.ReadFile(filepath.Join(path, entry.Name()), dir)
		if err != nil {
			return nil, err
		}
		data[key] = value
		sources[key] = entry.Name()
	}

	logger.V(3).Infof("Loaded %d fixtures from %s: %v", len(data), path, data.Keys())
	return data, nil
}

// ReadFile decodes a single fixture file. Files ending in .tmpl are rendered
// with gomplate first and decoded by the extension that precedes .tmpl.
func (l Loader) ReadFile(path, dir string) (any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	name := filepath.Base(path)
	if strings.HasSuffix(name, templateExt) {
		name = strings.TrimSuffix(name, templateExt)
		rendered, err := l.render(string(content), dir)
		if err != nil {
			return nil, fmt.Errorf("failed to template fixture %s: %w", path, err)
		}
		content = []byte(rendered)
	}

	formats := l.Formats
	if formats == nil {
		formats = DefaultRegistry
	}
	format := formats.GetForFile(name)

	value, err := format.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s fixture %s: %w", format.Name(), path, err)
	}
	return value, nil
}

func (l Loader) render(template, dir string) (string, error) {
	data := map[string]any{}
	for k, v := range l.TemplateData {
		data[k] = v
	}
	data["caseDir"] = dir

	return gomplate.RunTemplate(data, gomplate.Template{
		Template: template,
	})
}
