package cli

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rcliao/welfare-desk/internal/model"
	"github.com/rcliao/welfare-desk/internal/scheme"
)

func init() {
	cmd := &cobra.Command{
		Use:   "verify-doc",
		Short: "Check a document photo before uploading it",
		Long: "Send a document photo (image file or a file holding a base64 data URL) to the " +
			"scheme service for a legibility and type check. With --save a valid document is " +
			"recorded on the profile.",
		Run: runVerifyDoc,
	}

	cmd.Flags().StringP("type", "t", "", "Document type: aadharCard, rationCard, incomeCert, communityCert, eduCert (required)")
	cmd.Flags().String("file", "", "Image file (required)")
	cmd.Flags().Bool("save", false, "Record the document on the profile when it passes")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("file")

	RootCmd.AddCommand(cmd)
}

func runVerifyDoc(cmd *cobra.Command, args []string) {
	docType, _ := cmd.Flags().GetString("type")
	path, _ := cmd.Flags().GetString("file")
	save, _ := cmd.Flags().GetBool("save")
	ctx := cmd.Context()

	t := model.DocumentType(docType)
	if !knownDocument(t) {
		exitErr("verify-doc", fmt.Errorf("unknown document type %q", docType))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		exitErr("read image", err)
	}
	image, mimeType, err := readImage(path, raw)
	if err != nil {
		exitErr("read image", err)
	}

	svc, done := newService(ctx)
	defer done()

	res, err := svc.VerifyDocumentImage(ctx, image, mimeType, t.Label(), language())
	if err != nil {
		warnService(err)
		res = &scheme.DocumentCheck{}
	}

	if save && res.IsValid {
		s, err := openStore()
		if err != nil {
			exitErr("open store", err)
		}
		defer s.Close()

		session := resolveSession(ctx, s)
		marker := model.DocumentMarker(dataURL(mimeType, image))
		_, err = s.Update(ctx, session, func(p *model.Profile) error {
			if p.Documents == nil {
				p.Documents = model.Documents{}
			}
			p.Documents[t] = marker
			return nil
		})
		if err != nil && !warnStorage("save document", err) {
			exitErr("save document", err)
		}
	}

	if textOutput() {
		verdict := "rejected"
		if res.IsValid {
			verdict = "accepted"
		}
		fmt.Printf("%s: %s\n%s\n", t.Label(), verdict, res.Feedback)
		return
	}
	printJSON(res)
}

func knownDocument(t model.DocumentType) bool {
	for _, known := range model.DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// readImage accepts raw image bytes or a stored data URL.
func readImage(path string, raw []byte) ([]byte, string, error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("data:")) {
		return scheme.DecodeDataURL(string(trimmed))
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(raw)
	}
	return raw, mimeType, nil
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
