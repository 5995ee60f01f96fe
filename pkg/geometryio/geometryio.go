// Package geometryio stores geometries as YAML documents.
// Transforms are written in the bracketed matrix+offset notation of
// geometry.FormatTransform; bounds, time bounds and vectors as number lists.
// Reference geometries are not part of a document.
package geometryio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/MITK/MITK-sub033/pkg/geometry"
)

// Version is the document format version written by Marshal.
const Version = 1

// Kind names the concrete geometry type stored in a document
type Kind string

const (
	KindGeometry3D         Kind = "Geometry3D"
	KindGeometry2D         Kind = "Geometry2D"
	KindPlaneGeometry      Kind = "PlaneGeometry"
	KindSlicedGeometry3D   Kind = "SlicedGeometry3D"
	KindTimeSlicedGeometry Kind = "TimeSlicedGeometry"
)

// ErrInvalidDocument is returned for documents that do not describe a geometry.
var ErrInvalidDocument = errors.New("invalid geometry document")

// Document is the YAML form of a geometry
type Document struct {
	Version int  `yaml:"version,omitempty"`
	Kind    Kind `yaml:"kind"`

	// Common Geometry3D state
	IndexToWorld     string    `yaml:"indexToWorld"`
	Bounds           []float64 `yaml:"bounds,flow"`
	TimeBounds       []float64 `yaml:"timeBounds,flow"`
	FrameOfReference uint      `yaml:"frameOfReference,omitempty"`
	ImageGeometry    bool      `yaml:"imageGeometry,omitempty"`

	// Stack of planes; empty slots are null
	EvenlySpaced    bool        `yaml:"evenlySpaced,omitempty"`
	DirectionVector []float64   `yaml:"directionVector,flow,omitempty"`
	Slices          []*Document `yaml:"slices,omitempty"`

	// Sequence over time; empty steps are null
	EvenlyTimed bool        `yaml:"evenlyTimed,omitempty"`
	Steps       []*Document `yaml:"steps,omitempty"`
}

// ToDocument converts g into its document form. Slices and time steps that
// are derived on demand are not stored.
func ToDocument(g geometry.Geometry) (*Document, error) {
	if g == nil {
		return nil, fmt.Errorf("nil geometry: %w", ErrInvalidDocument)
	}
	doc := baseDocument(g.Base())

	switch v := g.(type) {
	case *geometry.Geometry3D:
		doc.Kind = KindGeometry3D
	case *geometry.Geometry2D:
		doc.Kind = KindGeometry2D
	case *geometry.PlaneGeometry:
		doc.Kind = KindPlaneGeometry
	case *geometry.SlicedGeometry3D:
		doc.Kind = KindSlicedGeometry3D
		doc.EvenlySpaced = v.EvenlySpaced()
		d := v.DirectionVector()
		doc.DirectionVector = []float64{d.X, d.Y, d.Z}
		doc.Slices = make([]*Document, v.Slices())
		for i := range doc.Slices {
			if v.EvenlySpaced() && i > 0 {
				break
			}
			slice := v.Geometry2D(i)
			if slice == nil {
				continue
			}
			sd, err := ToDocument(slice)
			if err != nil {
				return nil, fmt.Errorf("slice %d: %w", i, err)
			}
			doc.Slices[i] = sd
		}
	case *geometry.TimeSlicedGeometry:
		doc.Kind = KindTimeSlicedGeometry
		doc.EvenlyTimed = v.EvenlyTimed()
		doc.Steps = make([]*Document, v.TimeSteps())
		for t := range doc.Steps {
			if v.EvenlyTimed() && t > 0 {
				break
			}
			step := v.TimeStepGeometry(t)
			if step == nil {
				continue
			}
			sd, err := ToDocument(step)
			if err != nil {
				return nil, fmt.Errorf("time step %d: %w", t, err)
			}
			doc.Steps[t] = sd
		}
	default:
		return nil, fmt.Errorf("unsupported geometry type %T: %w", g, ErrInvalidDocument)
	}
	return doc, nil
}

func baseDocument(b *geometry.Geometry3D) *Document {
	bounds := b.Bounds()
	tb := b.TimeBounds()
	return &Document{
		IndexToWorld:     geometry.FormatTransform(b.IndexToWorldTransform()),
		Bounds:           bounds[:],
		TimeBounds:       []float64{tb[0], tb[1]},
		FrameOfReference: b.FrameOfReferenceID(),
		ImageGeometry:    b.ImageGeometry(),
	}
}

// FromDocument builds the geometry described by doc.
func FromDocument(doc *Document) (geometry.Geometry, error) {
	if doc == nil {
		return nil, fmt.Errorf("empty document: %w", ErrInvalidDocument)
	}
	if doc.Version > Version {
		return nil, fmt.Errorf("document version %d is newer than %d: %w", doc.Version, Version, ErrInvalidDocument)
	}

	var g geometry.Geometry
	var err error
	switch doc.Kind {
	case KindGeometry3D:
		g = geometry.NewGeometry3D()
		err = applyBase(g, doc)
	case KindGeometry2D:
		g = geometry.NewGeometry2D()
		err = applyBase(g, doc)
	case KindPlaneGeometry:
		g = geometry.NewPlaneGeometry()
		err = applyBase(g, doc)
	case KindSlicedGeometry3D:
		g, err = slicedFromDocument(doc)
	case KindTimeSlicedGeometry:
		g, err = timeSlicedFromDocument(doc)
	default:
		return nil, fmt.Errorf("unknown kind %q: %w", doc.Kind, ErrInvalidDocument)
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// applyBase copies the common state of doc onto g
func applyBase(g geometry.Geometry, doc *Document) error {
	t, err := geometry.ParseTransform(doc.IndexToWorld)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidDocument)
	}
	if len(doc.Bounds) != 6 {
		return fmt.Errorf("bounds need 6 values, got %d: %w", len(doc.Bounds), ErrInvalidDocument)
	}
	var bounds [6]float64
	copy(bounds[:], doc.Bounds)

	tb := geometry.InfiniteTimeBounds()
	switch len(doc.TimeBounds) {
	case 0:
	case 2:
		tb = geometry.TimeBounds{doc.TimeBounds[0], doc.TimeBounds[1]}
	default:
		return fmt.Errorf("time bounds need 2 values, got %d: %w", len(doc.TimeBounds), ErrInvalidDocument)
	}

	b := g.Base()
	if err := b.SetBounds(bounds); err != nil {
		return err
	}
	b.SetIndexToWorldTransform(t)
	b.SetFrameOfReferenceID(doc.FrameOfReference)
	g.SetTimeBounds(tb)
	g.SetImageGeometry(doc.ImageGeometry)
	return nil
}

func slicedFromDocument(doc *Document) (geometry.Geometry, error) {
	s := geometry.NewSlicedGeometry3D()
	s.Initialize(len(doc.Slices))
	s.SetEvenlySpaced(doc.EvenlySpaced)
	if err := applyBase(s, doc); err != nil {
		return nil, err
	}
	if len(doc.DirectionVector) > 0 {
		if len(doc.DirectionVector) != 3 {
			return nil, fmt.Errorf("direction vector needs 3 values, got %d: %w", len(doc.DirectionVector), ErrInvalidDocument)
		}
		s.SetDirectionVector(r3.Vec{X: doc.DirectionVector[0], Y: doc.DirectionVector[1], Z: doc.DirectionVector[2]})
	}
	for i, sd := range doc.Slices {
		if sd == nil {
			continue
		}
		g, err := FromDocument(sd)
		if err != nil {
			return nil, fmt.Errorf("slice %d: %w", i, err)
		}
		planar, ok := g.(geometry.PlanarGeometry)
		if !ok {
			return nil, fmt.Errorf("slice %d is a %s: %w", i, sd.Kind, ErrInvalidDocument)
		}
		s.SetGeometry2D(planar, i)
	}
	return s, nil
}

func timeSlicedFromDocument(doc *Document) (geometry.Geometry, error) {
	ts := geometry.NewTimeSlicedGeometry()
	ts.InitializeEmpty(len(doc.Steps))
	ts.SetEvenlyTimed(doc.EvenlyTimed)
	if err := applyBase(ts, doc); err != nil {
		return nil, err
	}
	for t, sd := range doc.Steps {
		if sd == nil {
			continue
		}
		g, err := FromDocument(sd)
		if err != nil {
			return nil, fmt.Errorf("time step %d: %w", t, err)
		}
		ts.SetTimeStepGeometry(g, t)
	}
	return ts, nil
}

// Marshal encodes g as a YAML document
func Marshal(g geometry.Geometry) ([]byte, error) {
	doc, err := ToDocument(g)
	if err != nil {
		return nil, err
	}
	return MarshalDocument(doc)
}

// MarshalDocument encodes doc as YAML at the current document version
func MarshalDocument(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document: %w", ErrInvalidDocument)
	}
	doc.Version = Version
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("error marshaling geometry: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a geometry from YAML
func Unmarshal(data []byte) (geometry.Geometry, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing geometry: %w", err)
	}
	return FromDocument(&doc)
}

// Save writes g to a YAML file, creating the directory if needed
func Save(g geometry.Geometry, path string) error {
	data, err := Marshal(g)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating geometry directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing geometry file: %w", err)
	}
	return nil
}

// Load reads a geometry from a YAML file
func Load(path string) (geometry.Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading geometry file: %w", err)
	}
	return Unmarshal(data)
}
