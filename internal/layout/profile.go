package layout

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Profile is the print profile read from TOML.
//
//	[sender]
//	lines = ["Misjonarze Werbiści", "ul. Jagiellońska 45", "20-806 Lublin"]
//	logo = "logo.png"
//	logo_text = "WERBISCI"
//
//	[document]
//	author = "Misjonarze Werbisci Lublin"
//
//	[fonts]
//	regular = ["/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"]
type Profile struct {
	Sender   SenderProfile   `toml:"sender"`
	Document DocumentProfile `toml:"document"`
	Fonts    FontCandidates  `toml:"fonts"`
}

// SenderProfile describes the return address block.
type SenderProfile struct {
	Lines []string `toml:"lines"`
	// Logo is a PNG or JPEG path, relative to the profile file.
	Logo     string `toml:"logo"`
	LogoText string `toml:"logo_text"`
}

// DocumentProfile holds PDF metadata.
type DocumentProfile struct {
	Author string `toml:"author"`
}

// DefaultProfile returns the built-in sender and the default font
// candidates for fontDir.
func DefaultProfile(fontDir string) Profile {
	return Profile{
		Sender: SenderProfile{
			Lines: []string{
				"Misjonarze Werbiści",
				"ul. Jagiellońska 45",
				"20-806 Lublin",
			},
			LogoText: "WERBISCI",
		},
		Document: DocumentProfile{Author: "Misjonarze Werbisci Lublin"},
		Fonts:    DefaultFontCandidates(fontDir),
	}
}

// LoadProfile reads a TOML profile from path over the defaults. An empty
// path returns the defaults. Font lists given in the file replace the
// default lists for that role.
func LoadProfile(path, fontDir string) (Profile, error) {
	p := DefaultProfile(fontDir)
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read print profile: %w", err)
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse print profile %s: %w", path, err)
	}

	if p.Sender.Logo != "" && !filepath.IsAbs(p.Sender.Logo) {
		p.Sender.Logo = filepath.Join(filepath.Dir(path), p.Sender.Logo)
	}
	return p, nil
}

// LoadSender builds the Sender, reading and decoding the logo if one is
// configured.
func (p Profile) LoadSender() (Sender, error) {
	s := Sender{Lines: p.Sender.Lines, LogoText: p.Sender.LogoText}
	if p.Sender.Logo == "" {
		return s, nil
	}

	data, err := os.ReadFile(p.Sender.Logo)
	if err != nil {
		return Sender{}, fmt.Errorf("read logo: %w", err)
	}
	logo, err := DecodeLogo(data)
	if err != nil {
		return Sender{}, fmt.Errorf("logo %s: %w", p.Sender.Logo, err)
	}
	s.Logo = logo
	return s, nil
}

// DecodeLogo reads the dimensions of a PNG or JPEG image.
func DecodeLogo(data []byte) (*Logo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var typ string
	switch format {
	case "png":
		typ = "PNG"
	case "jpeg":
		typ = "JPG"
	default:
		return nil, fmt.Errorf("unsupported image format %q", strings.ToUpper(format))
	}
	return &Logo{Data: data, Type: typ, Width: cfg.Width, Height: cfg.Height}, nil
}
