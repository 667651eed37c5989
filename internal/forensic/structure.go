package forensic

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Structure is the read-once structural view of a PDF buffer, extracted
// through pdfcpu with relaxed validation. Fields that could not be read are
// left at their zero value; structural access degrades, it does not fail
// the scan.
type Structure struct {
	PageCount       int
	Encrypted       bool
	TrailerID       []string // the two trailer file identifiers, if present
	LayerCount      int      // OCG entries under OCProperties
	HasAcroForm     bool
	HasXFA          bool
	HasSigFields    bool
	NeedAppearances bool

	// Document-info dictionary fields
	InfoCreator      string
	InfoProducer     string
	InfoCreationDate string
	InfoModDate      string
}

// OpenStructure reads the structural view of a PDF buffer. An error means
// the buffer could not be opened at all; partial extraction failures are
// absorbed into zero-valued fields.
func OpenStructure(raw []byte) (*Structure, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(raw), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	s := &Structure{
		PageCount: ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
	}

	s.readTrailerID(ctx)
	s.readCatalog(ctx)
	s.readInfo(ctx)

	return s, nil
}

// ValidateBytes runs pdfcpu's relaxed structural validation over a buffer.
// Used to decide whether a carved revision is structurally usable.
func ValidateBytes(raw []byte) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(raw), conf)
	if err != nil {
		return fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// LooksEncrypted reports whether a raw buffer that failed to open carries
// an encryption dictionary reference in its trailer region.
func LooksEncrypted(raw []byte) bool {
	tail := raw
	if len(tail) > 4096 {
		tail = tail[len(tail)-4096:]
	}
	return bytes.Contains(tail, []byte("/Encrypt"))
}

func (s *Structure) readTrailerID(ctx *model.Context) {
	if ctx.ID == nil {
		return
	}
	for _, obj := range ctx.ID {
		switch v := obj.(type) {
		case types.StringLiteral:
			s.TrailerID = append(s.TrailerID, fmt.Sprintf("%x", v.Value()))
		case types.HexLiteral:
			s.TrailerID = append(s.TrailerID, v.Value())
		}
	}
}

func (s *Structure) readCatalog(ctx *model.Context) {
	catalog, err := ctx.Catalog()
	if err != nil || catalog == nil {
		return
	}

	if obj, found := catalog.Find("OCProperties"); found {
		if ocProps, err := ctx.DereferenceDict(obj); err == nil && ocProps != nil {
			if ocgsObj, found := ocProps.Find("OCGs"); found {
				if ocgs, err := ctx.DereferenceArray(ocgsObj); err == nil {
					s.LayerCount = len(ocgs)
				}
			}
		}
	}

	obj, found := catalog.Find("AcroForm")
	if !found {
		return
	}
	form, err := ctx.DereferenceDict(obj)
	if err != nil || form == nil {
		return
	}
	s.HasAcroForm = true

	if _, found := form.Find("XFA"); found {
		s.HasXFA = true
	}
	if flagsObj, found := form.Find("SigFlags"); found {
		if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil && flags.Value() > 0 {
			s.HasSigFields = true
		}
	}
	if naObj, found := form.Find("NeedAppearances"); found {
		if na, err := ctx.DereferenceBoolean(naObj, model.V10); err == nil && na != nil && na.Value() {
			s.NeedAppearances = true
		}
	}
}

func (s *Structure) readInfo(ctx *model.Context) {
	if ctx.Info == nil {
		return
	}
	info, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || info == nil {
		return
	}

	read := func(key string) string {
		obj, found := info.Find(key)
		if !found {
			return ""
		}
		val, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
		if err != nil {
			return ""
		}
		return val
	}

	s.InfoCreator = read("Creator")
	s.InfoProducer = read("Producer")
	s.InfoCreationDate = read("CreationDate")
	s.InfoModDate = read("ModDate")
}
