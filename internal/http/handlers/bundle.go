package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
	"github.com/AzrielTheHellrazor/Flicks/pkg/zip"
)

type bundleImage struct {
	Type   string `json:"type"`
	Base64 string `json:"base64"`
}

type bundleRequest struct {
	Prompt string        `json:"prompt"`
	Images []bundleImage `json:"images"`
}

type bundleManifest struct {
	Prompt string            `json:"prompt"`
	Files  map[string]string `json:"files"`
}

// Bundle packages a finished run into a zip of PNGs with a small manifest
// mapping each variant to its file and display name.
func (a *App) Bundle(w http.ResponseWriter, r *http.Request) {
	var req bundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.Images) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "no images to bundle")
		return
	}

	titler := cases.Title(language.English)
	assets := make([]zip.Asset, 0, len(req.Images))
	files := make(map[string]string, len(req.Images))
	for _, img := range req.Images {
		variant, err := domain.ParseVariant(img.Type)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("unsupported image type %q", img.Type))
			return
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(img.Base64))
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("image %s is not valid base64", variant))
			return
		}
		filename := fmt.Sprintf("%s.png", variant)
		assets = append(assets, zip.Asset{Filename: filename, Data: data})
		files[titler.String(string(variant))] = filename
	}

	manifest, err := json.MarshalIndent(bundleManifest{
		Prompt: strings.TrimSpace(req.Prompt),
		Files:  files,
	}, "", "  ")
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build manifest")
		return
	}
	archive, err := zip.Archive(manifest, assets)
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to build asset archive")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="flicks-assets.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
