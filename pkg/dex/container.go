package dex

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// FormatVersion is the current container format version.
// Increment when making incompatible changes to the format.
const FormatVersion uint16 = 1

// Magic bytes for container files: "DEXC"
var ContainerMagic = []byte{'D', 'E', 'X', 'C'}

// headerSize is the fixed preamble length in bytes:
// magic(4) + version(2) + flags(2) + opset(2) + class count(4) +
// body length(4) + body sha256(32).
const headerSize = 4 + 2 + 2 + 2 + 4 + 4 + 32

// ---------------------------------------------------------------------------
// Container Error Types
// ---------------------------------------------------------------------------

var (
	ErrInvalidMagic     = errors.New("invalid magic number: expected DEXC")
	ErrVersionMismatch  = errors.New("container version mismatch")
	ErrCorruptHeader    = errors.New("corrupt container header")
	ErrChecksumMismatch = errors.New("container body checksum mismatch")
)

// cborEncMode is the canonical CBOR encoding mode used for container
// bodies. Canonical mode keeps serialization deterministic, so an
// untouched class round-trips to byte-identical output.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dex: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ---------------------------------------------------------------------------
// Container: one bytecode file plus its instruction-set context
// ---------------------------------------------------------------------------

// OpcodeSet identifies the instruction-set context a container was encoded
// with. It is captured at read time and required again at serialization.
type OpcodeSet struct {
	ID uint16
}

// Container is one decoded bytecode file: an ordered list of class
// definitions plus the opcode context needed to interpret them.
type Container struct {
	Name    string
	OpSet   OpcodeSet
	Flags   uint16
	Classes []*ClassDef
}

// ReadContainer decodes a container from raw bytes.
// Returns ErrInvalidMagic, ErrVersionMismatch, ErrCorruptHeader, or
// ErrChecksumMismatch for the corresponding malformed inputs.
func ReadContainer(data []byte) (*Container, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrCorruptHeader, headerSize, len(data))
	}
	if string(data[0:4]) != string(ContainerMagic) {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, data[0:4])
	}

	version := binary.BigEndian.Uint16(data[4:6])
	if version > FormatVersion {
		return nil, fmt.Errorf("%w: container version %d is newer than supported version %d",
			ErrVersionMismatch, version, FormatVersion)
	}

	c := &Container{
		Flags: binary.BigEndian.Uint16(data[6:8]),
		OpSet: OpcodeSet{ID: binary.BigEndian.Uint16(data[8:10])},
	}
	classCount := binary.BigEndian.Uint32(data[10:14])
	bodyLen := binary.BigEndian.Uint32(data[14:18])

	var declared [32]byte
	copy(declared[:], data[18:50])

	// Compared in uint64: headerSize+int(bodyLen) can overflow a 32-bit
	// int and slip past the check.
	if uint64(bodyLen) > uint64(len(data)-headerSize) {
		return nil, fmt.Errorf("%w: body length %d exceeds data", ErrCorruptHeader, bodyLen)
	}
	body := data[headerSize : headerSize+int(bodyLen)]

	if sha256.Sum256(body) != declared {
		return nil, ErrChecksumMismatch
	}

	if err := cbor.Unmarshal(body, &c.Classes); err != nil {
		return nil, fmt.Errorf("dex: unmarshal class table: %w", err)
	}
	if uint32(len(c.Classes)) != classCount {
		return nil, fmt.Errorf("%w: header declares %d classes, body has %d",
			ErrCorruptHeader, classCount, len(c.Classes))
	}
	return c, nil
}

// ReadContainerFile reads and decodes a container from disk. The container
// name is the file's base name.
func ReadContainerFile(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dex: read %s: %w", path, err)
	}
	c, err := ReadContainer(data)
	if err != nil {
		return nil, fmt.Errorf("dex: %s: %w", path, err)
	}
	c.Name = filepath.Base(path)
	return c, nil
}

// Serialize encodes the container to bytes.
// Format:
//
//	[magic:4] [version:2] [flags:2] [opset:2]
//	[class_count:4] [body_len:4] [body_sha256:32]
//	[body: canonical CBOR class table]
func (c *Container) Serialize() ([]byte, error) {
	body, err := cborEncMode.Marshal(c.Classes)
	if err != nil {
		return nil, fmt.Errorf("dex: marshal class table: %w", err)
	}
	sum := sha256.Sum256(body)

	buf := make([]byte, 0, headerSize+len(body))
	buf = append(buf, ContainerMagic...)
	buf = binary.BigEndian.AppendUint16(buf, FormatVersion)
	buf = binary.BigEndian.AppendUint16(buf, c.Flags)
	buf = binary.BigEndian.AppendUint16(buf, c.OpSet.ID)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Classes)))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(body)))
	buf = append(buf, sum[:]...)
	buf = append(buf, body...)
	return buf, nil
}

// ---------------------------------------------------------------------------
// Package: a multi-file application package
// ---------------------------------------------------------------------------

// Package is a set of containers keyed by container name, as loaded from a
// multi-file application package.
type Package struct {
	Containers map[string]*Container
}

// ReadPackage reads all given container files into a package.
// Paths are read in the given order; duplicate base names are rejected.
func ReadPackage(paths []string) (*Package, error) {
	p := &Package{Containers: make(map[string]*Container, len(paths))}
	for _, path := range paths {
		c, err := ReadContainerFile(path)
		if err != nil {
			return nil, err
		}
		if _, ok := p.Containers[c.Name]; ok {
			return nil, fmt.Errorf("dex: duplicate container name %q in package", c.Name)
		}
		p.Containers[c.Name] = c
	}
	return p, nil
}

// Names returns the container names in sorted order.
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.Containers))
	for name := range p.Containers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClassCount returns the total number of classes across all containers.
func (p *Package) ClassCount() int {
	n := 0
	for _, c := range p.Containers {
		n += len(c.Classes)
	}
	return n
}
