// internal/receipt/service.go
package receipt

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"receipt-encoder/internal/config"
	"receipt-encoder/internal/utils"
	"receipt-encoder/pkg/escpos"
	"receipt-encoder/pkg/escpos/canvas"
	"receipt-encoder/pkg/escpos/layout"
)

// Result is an encoded document
type Result struct {
	JobID    string        `json:"job_id"`
	Renderer Renderer      `json:"renderer"`
	Bytes    []byte        `json:"-"`
	Size     int           `json:"size"`
	Duration time.Duration `json:"duration"`
}

// Service encodes documents with the configured printer defaults. Every
// call builds its own encoder, so a Service is safe for concurrent use.
type Service struct {
	config     *config.Config
	logger     *utils.ServiceLogger
	classifier layout.Classifier
	fontData   []byte
}

// NewService creates a receipt service. The canvas font is loaded once here.
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	classifier, ok := layout.ClassifierByName(cfg.Printer.Classifier)
	if !ok {
		return nil, fmt.Errorf("unknown classifier: %s", cfg.Printer.Classifier)
	}

	var fontData []byte
	if cfg.Canvas.FontFile != "" {
		data, err := os.ReadFile(cfg.Canvas.FontFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read canvas font: %w", err)
		}
		fontData = data
	}
	if _, err := canvas.NewSurface(cfg.Canvas.Surface, fontData); err != nil {
		return nil, fmt.Errorf("failed to create canvas surface: %w", err)
	}

	return &Service{
		config:     cfg,
		logger:     utils.NewServiceLogger(logger, "receipt-service"),
		classifier: classifier,
		fontData:   fontData,
	}, nil
}

// Encode runs every command of doc and returns the printer bytes. The
// context is checked between commands.
func (s *Service) Encode(ctx context.Context, doc *Document) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidDocument)
	}

	renderer := doc.renderer()
	jobID := uuid.New().String()
	job := utils.NewJobLogger(s.logger.Logger, jobID, string(renderer))
	job.Start(zap.Int("commands", len(doc.Commands)))

	if timeout := s.config.Printer.JobTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var (
		data []byte
		err  error
	)
	switch renderer {
	case RendererESCPOS:
		data, err = s.encodeESCPOS(ctx, doc, job.Logger())
	case RendererCanvas:
		data, err = s.encodeCanvas(ctx, doc, job.Logger())
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownRenderer, doc.Renderer)
	}
	if err != nil {
		job.Error(err)
		return nil, err
	}

	job.Success(len(data))
	return &Result{
		JobID:    jobID,
		Renderer: renderer,
		Bytes:    data,
		Size:     len(data),
		Duration: job.Elapsed(),
	}, nil
}

func (s *Service) profile(doc *Document) (layout.Profile, error) {
	name := pick(doc.Profile, s.config.Printer.Profile)
	p, ok := layout.LookupProfile(name)
	if !ok {
		return layout.Profile{}, &escpos.ValidationError{Op: "profile", Value: name, Err: escpos.ErrUnknownProfile}
	}
	return p, nil
}

func (s *Service) encodeESCPOS(ctx context.Context, doc *Document, logger *zap.Logger) ([]byte, error) {
	p, err := s.profile(doc)
	if err != nil {
		return nil, err
	}

	e := escpos.NewEncoder(
		escpos.WithProfile(p),
		escpos.WithClassifier(s.classifier),
		escpos.WithMetrics(s.config.Layout),
		escpos.WithRasterOptions(s.config.RasterOptions()),
		escpos.WithMaxStripHeight(s.config.Printer.MaxStripHeight),
		escpos.WithLogger(logger),
	)

	if doc.initialize(s.config.Printer.Initialize) {
		e.Initialize()
	}
	if cp := pick(doc.Codepage, s.config.Printer.Codepage); cp != "" {
		if err := e.Codepage(cp).Err(); err != nil {
			return nil, err
		}
	}

	for i, cmd := range doc.Commands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := applyESCPOS(e, cmd); err != nil {
			return nil, &CommandError{Index: i, Op: cmd.Op, Err: err}
		}
		if err := e.Err(); err != nil {
			return nil, &CommandError{Index: i, Op: cmd.Op, Err: err}
		}
	}

	return e.Encode()
}

func applyESCPOS(e *escpos.Encoder, cmd Command) error {
	switch cmd.Op {
	case OpText:
		e.Text(cmd.Text)
	case OpLine:
		e.Line(cmd.Text)
	case OpNewline:
		e.Newline()
	case OpWrap:
		e.TextWrap(cmd.Text, cmd.Width)
	case OpCodepage:
		e.Codepage(cmd.Value)
	case OpAlign:
		e.Align(escpos.Alignment(cmd.Value))
	case OpBold:
		e.Bold(cmd.On)
	case OpItalic:
		e.Italic(cmd.On)
	case OpUnderline:
		if cmd.Double {
			e.UnderlineDouble()
		} else {
			e.Underline(cmd.On)
		}
	case OpSize:
		e.Size(cmd.N)
	case OpFontSize:
		e.FontSize(escpos.FontSize(cmd.Value))
	case OpOneLine:
		e.OneLine(cmd.Left, cmd.Right)
	case OpRule:
		ch := ruleChar(cmd.Char, '-')
		if cmd.Text != "" {
			e.Banner(ch, cmd.Text)
		} else {
			e.PrintLine(ch)
		}
	case OpEmpty:
		e.EmptyLine(atLeastOne(cmd.N))
	case OpFrontDesk:
		e.FrontDeskDishes(cmd.Items, cmd.FrontDesk)
	case OpKitchen:
		e.KitchenDishes(cmd.Items, cmd.Kitchen)
	case OpBarcode:
		e.Barcode(cmd.Value, cmd.Symbology, cmd.Height)
	case OpBarcodeImage:
		e.BarcodeImage(cmd.Value, cmd.Symbology, cmd.Width, cmd.Height)
	case OpQRCode:
		e.QRCode(cmd.Value, escpos.QROptions{Model: cmd.Model, Size: cmd.ModuleSize, Level: cmd.Level})
	case OpQRCodeImage:
		e.QRCodeImage(cmd.Value, cmd.Level, cmd.ModuleSize)
	case OpImage:
		img, err := decodeImage(cmd.Data)
		if err != nil {
			return err
		}
		if cmd.Fit {
			e.ImageFit(img)
		} else {
			e.Image(img)
		}
	case OpFeed:
		e.Feed(cmd.N)
	case OpCut:
		e.Cut()
	case OpCutPartial:
		e.CutPartial()
	case OpDrawer:
		e.OpenDrawer(cmd.N)
	case OpRaw:
		e.Raw(cmd.Data)
	case OpLineHeight:
		return ErrUnsupportedOp
	default:
		return ErrUnknownOp
	}
	return nil
}

func (s *Service) encodeCanvas(ctx context.Context, doc *Document, logger *zap.Logger) ([]byte, error) {
	p, err := s.profile(doc)
	if err != nil {
		return nil, err
	}

	surface, err := canvas.NewSurface(s.config.Canvas.Surface, s.fontData)
	if err != nil {
		return nil, fmt.Errorf("failed to create canvas surface: %w", err)
	}
	e := canvas.NewEncoder(surface,
		canvas.WithOptions(s.config.Canvas.Options),
		canvas.WithProfile(p),
		canvas.WithRasterOptions(s.config.RasterOptions()),
		canvas.WithMaxStripHeight(s.config.Printer.MaxStripHeight),
		canvas.WithLogger(logger),
	)

	if doc.initialize(s.config.Printer.Initialize) {
		e.Initialize()
	}

	for i, cmd := range doc.Commands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := applyCanvas(e, cmd); err != nil {
			return nil, &CommandError{Index: i, Op: cmd.Op, Err: err}
		}
		if err := e.Err(); err != nil {
			return nil, &CommandError{Index: i, Op: cmd.Op, Err: err}
		}
	}

	return e.Encode()
}

// applyCanvas runs the commands that make sense on a drawn page. Codepage
// switches are accepted and ignored since glyphs come from the host font.
func applyCanvas(e *canvas.Encoder, cmd Command) error {
	switch cmd.Op {
	case OpText:
		e.Text(cmd.Text)
	case OpLine, OpWrap:
		e.Line(cmd.Text)
	case OpNewline:
		e.Newline()
	case OpCodepage:
	case OpAlign:
		e.Align(escpos.Alignment(cmd.Value))
	case OpBold:
		e.Bold(cmd.On)
	case OpFontSize:
		e.FontSize(escpos.FontSize(cmd.Value))
	case OpLineHeight:
		switch cmd.Value {
		case "", "default":
			e.DefaultLineHeight()
		case "enlarge":
			e.EnlargeLineHeight(false)
		case "enlarge_big":
			e.EnlargeLineHeight(true)
		default:
			return &escpos.ValidationError{Op: "line height", Value: cmd.Value, Err: escpos.ErrInvalidSize}
		}
	case OpOneLine:
		e.OneLine(cmd.Left, cmd.Right)
	case OpRule:
		e.PrintLine(ruleChar(cmd.Char, '-'), cmd.Text, cmd.Middle)
	case OpEmpty:
		e.EmptyLine(atLeastOne(cmd.N))
	case OpFrontDesk:
		e.FrontDeskDishes(cmd.Items, cmd.FrontDesk, cmd.List)
	case OpKitchen:
		e.KitchenDishes(cmd.Items, cmd.Kitchen, cmd.List)
	case OpCut:
		e.Cut()
	case OpCutPartial:
		e.CutPartial()
	case OpItalic, OpUnderline, OpSize, OpBarcode, OpBarcodeImage, OpQRCode,
		OpQRCodeImage, OpImage, OpFeed, OpDrawer, OpRaw:
		return ErrUnsupportedOp
	default:
		return ErrUnknownOp
	}
	return nil
}
