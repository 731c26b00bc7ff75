package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/heimdex/markers-extractor/internal/textfile"
)

// tabularProfile writes comma or tab separated manifests with a header row.
type tabularProfile struct {
	base
	comma rune
}

func (p *tabularProfile) MediaCapable() bool { return false }

func (p *tabularProfile) Fields() []Field { return Fields }

func (p *tabularProfile) ManifestFields(pm *PreparedMarker, noMedia bool) []FieldValue {
	return fieldValues(pm, columns(Fields, noMedia))
}

func (p *tabularProfile) WriteManifest(pms []PreparedMarker, payload Payload, noMedia bool) error {
	cols := columns(Fields, noMedia)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = p.comma

	header := make([]string, len(cols))
	for i, f := range cols {
		header[i] = f.Header()
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to encode manifest %q: %w", payload.ManifestPath, err)
	}
	for i := range pms {
		row := make([]string, len(cols))
		for j, fv := range fieldValues(&pms[i], cols) {
			row[j] = fv.Value
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to encode manifest %q: %w", payload.ManifestPath, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode manifest %q: %w", payload.ManifestPath, err)
	}
	return writeFile(payload.ManifestPath, buf.Bytes())
}

// txtProfile writes a header-less, space separated list of positions and
// names.
type txtProfile struct {
	base
}

var txtFields = []Field{FieldPosition, FieldName}

func (p *txtProfile) MediaCapable() bool { return false }

func (p *txtProfile) Fields() []Field { return txtFields }

func (p *txtProfile) ManifestFields(pm *PreparedMarker, noMedia bool) []FieldValue {
	return fieldValues(pm, columns(txtFields, noMedia))
}

func (p *txtProfile) WriteManifest(pms []PreparedMarker, payload Payload, noMedia bool) error {
	table := make([][]string, 0, len(pms))
	for i := range pms {
		fvs := p.ManifestFields(&pms[i], noMedia)
		row := make([]string, len(fvs))
		for j, fv := range fvs {
			row[j] = fv.Value
		}
		table = append(table, row)
	}
	return writeFile(payload.ManifestPath, []byte(textfile.Render(table)))
}

// jsonProfile writes an array of objects whose keys follow column order.
// Audio roles are written as an array.
type jsonProfile struct {
	base
}

func (p *jsonProfile) MediaCapable() bool { return true }

func (p *jsonProfile) Fields() []Field { return Fields }

func (p *jsonProfile) ManifestFields(pm *PreparedMarker, noMedia bool) []FieldValue {
	return fieldValues(pm, columns(Fields, noMedia))
}

func (p *jsonProfile) WriteManifest(pms []PreparedMarker, payload Payload, noMedia bool) error {
	cols := columns(Fields, noMedia)
	objects := make([]orderedObject, 0, len(pms))
	for i := range pms {
		obj := make(orderedObject, 0, len(cols))
		for _, f := range cols {
			var v any = pms[i].Value(f)
			if f == FieldAudioRole {
				v = pms[i].AudioRoles
			}
			obj = append(obj, member{key: string(f), value: v})
		}
		objects = append(objects, obj)
	}

	data, err := json.MarshalIndent(objects, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest %q: %w", payload.ManifestPath, err)
	}
	return writeFile(payload.ManifestPath, append(data, '\n'))
}

type member struct {
	key   string
	value any
}

// orderedObject is a JSON object that keeps its insertion order.
type orderedObject []member

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}
