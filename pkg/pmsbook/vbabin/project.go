package vbabin

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/modernpms/pmsbook/pkg/pmsbook/vbacache"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// ModuleType distinguishes procedural modules from document modules
// (ThisWorkbook and per-sheet code-behind).
type ModuleType int

const (
	ModuleStandard ModuleType = iota
	ModuleDocument
)

// Module is one macro module: a stream name plus its source text. The
// source is payload; it is stored, never interpreted.
type Module struct {
	Name string
	Type ModuleType
	Code string
}

// Project assembles modules into a compound-file macro binary.
type Project struct {
	Modules []Module
}

const (
	projectName     = "VBAProject"
	projectSysKind  = 0x00000001 // Win32
	projectLCID     = 0x0411     // Japanese
	projectCodePage = 932        // Shift_JIS
)

// idNamespace seeds the deterministic project ID; the ID depends only on
// the module set, never on randomness, keeping rebuilds byte-identical.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("pmsbook/vba-project"))

func shiftJIS(s string) []byte {
	enc := encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder())
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return b
}

func utf16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	b := make([]byte, len(units)*2)
	for i, u := range units {
		b[i*2] = byte(u)
		b[i*2+1] = byte(u >> 8)
	}
	return b
}

// Bytes builds the compound-file binary with the stream set hosts expect:
// VBA/dir, VBA/_VBA_PROJECT, one VBA/<module> stream per module, plus the
// textual PROJECT and PROJECTwm streams at the root.
func (p *Project) Bytes() ([]byte, error) {
	if len(p.Modules) == 0 {
		return nil, fmt.Errorf("vba project has no modules")
	}

	w := newCFBWriter()
	vba := w.addStorage("VBA", 0)
	w.addStream("dir", vba, ovbaContainer(p.dirStream()))
	w.addStream("_VBA_PROJECT", vba, []byte{0xCC, 0x61, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	for _, m := range p.Modules {
		w.addStream(m.Name, vba, ovbaContainer(p.moduleStream(m)))
	}
	w.addStream("PROJECT", 0, p.projectStream())
	w.addStream("PROJECTwm", 0, p.projectWmStream())
	return w.bytes()
}

// dirStream serializes the MS-OVBA dir record sequence.
func (p *Project) dirStream() []byte {
	var b bytes.Buffer
	rec := func(id uint16, payload []byte) {
		le16(&b, id)
		le32(&b, uint32(len(payload)))
		b.Write(payload)
	}
	u32 := func(v uint32) []byte {
		var buf [4]byte
		buf[0], buf[1], buf[2], buf[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
		return buf[:]
	}
	u16 := func(v uint16) []byte {
		return []byte{byte(v), byte(v >> 8)}
	}

	rec(0x0001, u32(projectSysKind))
	rec(0x0002, u32(projectLCID))
	rec(0x0014, u32(projectLCID)) // LCID invoke
	rec(0x0003, u16(projectCodePage))
	rec(0x0004, []byte(projectName))
	rec(0x0005, nil) // docstring
	rec(0x0040, nil)
	rec(0x0006, nil) // help file path
	rec(0x003D, nil)
	rec(0x0007, u32(0)) // help context
	rec(0x0008, u32(0)) // lib flags
	rec(0x0009, u32(0x00010001))
	rec(0x000C, nil) // constants
	rec(0x003C, nil)
	rec(0x000F, u16(uint16(len(p.Modules))))
	rec(0x0013, u16(0xFFFF)) // cookie

	for _, m := range p.Modules {
		name := shiftJIS(m.Name)
		nameU := utf16LE(m.Name)
		rec(0x0019, name)  // MODULENAME
		rec(0x0047, nameU) // MODULENAMEUNICODE
		rec(0x001A, name)  // MODULESTREAMNAME
		rec(0x0032, nameU)
		rec(0x001C, nil) // docstring
		rec(0x0048, nil)
		rec(0x0031, u32(0)) // offset
		rec(0x001E, u32(0)) // help context
		rec(0x002C, u16(0xFFFF))
		if m.Type == ModuleDocument {
			rec(0x0022, nil)
		} else {
			rec(0x0021, nil)
		}
		rec(0x002B, nil) // module terminator
	}

	rec(0x0010, nil) // terminator
	return b.Bytes()
}

// moduleStream prefixes the source with its VB_Name attribute when the
// payload does not already carry attributes.
func (p *Project) moduleStream(m Module) []byte {
	code := m.Code
	if !strings.HasPrefix(strings.TrimSpace(code), "Attribute") {
		code = fmt.Sprintf("Attribute VB_Name = %q\r\n%s", m.Name, code)
	}
	return shiftJIS(code)
}

func (p *Project) projectStream() []byte {
	id := uuid.NewSHA1(idNamespace, p.fingerprint())
	lines := []string{
		fmt.Sprintf("ID=\"{%s}\"", strings.ToUpper(id.String())),
		"Document=ThisWorkbook/&H00000000",
	}
	for _, m := range p.Modules {
		if m.Type == ModuleStandard {
			lines = append(lines, "Module="+m.Name)
		}
	}
	lines = append(lines,
		fmt.Sprintf("Name=%q", projectName),
		"HelpContextID=\"0\"",
		"VersionCompatible32=\"393222000\"",
		"CMG=\"0705030503050305\"",
		"DPB=\"0E0CD11CD11CD1\"",
		"GC=\"1517131713171317\"",
		"",
		"[Host Extender Info]",
		"&H00000001={3832D640-CF90-11CF-8E43-00A0C911005A};VBE;&H00000000",
		"",
		"[Workspace]",
	)
	return shiftJIS(strings.Join(lines, "\r\n"))
}

func (p *Project) projectWmStream() []byte {
	var b bytes.Buffer
	for _, m := range p.Modules {
		b.Write(shiftJIS(m.Name))
		b.WriteByte(0x00)
		b.Write(utf16LE(m.Name))
		b.Write([]byte{0x00, 0x00})
	}
	b.Write([]byte{0x00, 0x00})
	return b.Bytes()
}

func (p *Project) fingerprint() []byte {
	var b bytes.Buffer
	for _, m := range p.Modules {
		b.WriteString(m.Name)
		b.WriteByte(0)
		b.WriteString(m.Code)
		b.WriteByte(0)
	}
	return b.Bytes()
}

// Compiler turns cached macro sources into a project binary. It
// implements vbacache.Synthesizer.
type Compiler struct{}

// Synthesize maps each source to a module and assembles the binary.
// Sources are ordered by name so the blob is independent of load order.
func (Compiler) Synthesize(sources []vbacache.Source) ([]byte, error) {
	sorted := make([]vbacache.Source, len(sources))
	copy(sorted, sources)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	proj := &Project{}
	for _, src := range sorted {
		name := moduleName(src)
		proj.Modules = append(proj.Modules, Module{
			Name: name,
			Type: moduleType(name),
			Code: string(src.Data),
		})
	}
	return proj.Bytes()
}

// moduleName strips a source-file extension and honors an embedded
// Attribute VB_Name line when present.
func moduleName(src vbacache.Source) string {
	name := strings.TrimSuffix(strings.TrimSuffix(src.Name, ".bas"), ".cls")
	for _, line := range strings.Split(string(src.Data), "\n") {
		if strings.HasPrefix(line, "Attribute VB_Name") {
			if _, v, ok := strings.Cut(line, "="); ok {
				name = strings.Trim(strings.TrimSpace(strings.TrimRight(v, "\r")), `"`)
			}
			break
		}
	}
	return name
}

// moduleType classifies document modules by the naming convention the
// workbook blueprint uses: ThisWorkbook and *_View sheets carry
// code-behind, everything else is a standard module.
func moduleType(name string) ModuleType {
	if name == "ThisWorkbook" || strings.HasSuffix(name, "_View") || strings.HasPrefix(name, "Sheet") {
		return ModuleDocument
	}
	return ModuleStandard
}
