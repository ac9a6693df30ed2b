package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// maxImageResponse caps a reply carrying an inline base64 image.
const maxImageResponse = 16 << 20

var ErrNoImage = errors.New("no aged image generated")

// AgedPhoto is a restyled capture. ImageURL is usually a data: URL.
type AgedPhoto struct {
	ImageURL  string `json:"agedImageUrl"`
	YearsBack int    `json:"yearsBack"`
	Era       string `json:"era"`
}

// PhotoAger asks an image-capable chat endpoint to make a photo look like it
// was taken decades earlier.
type PhotoAger struct {
	Endpoint Endpoint
}

func NewPhotoAger(e Endpoint) *PhotoAger {
	return &PhotoAger{Endpoint: e}
}

// Era names the decade a photo aged by decadesBack should evoke.
func Era(decadesBack int) string {
	switch decadesBack {
	case 1:
		return "2010s"
	case 2:
		return "2000s"
	default:
		return "1990s"
	}
}

func agePrompt(yearsBack int, era string) string {
	return fmt.Sprintf(`Transform this photo to look like it was taken %d years ago in the %s.
Apply authentic vintage photo effects:
- Slightly faded colors with a warm yellowish or sepia undertone
- Minor film grain texture
- Soft focus typical of older cameras
- Slightly lower contrast
Keep the scene, composition, perspective and framing exactly the same. Only age the photograph itself.`, yearsBack, era)
}

type imageURL struct {
	URL string `json:"url"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type imageRequest struct {
	Model      string         `json:"model"`
	Messages   []imageMessage `json:"messages"`
	Modalities []string       `json:"modalities"`
}

type imageResponse struct {
	Choices []struct {
		Message struct {
			Images []struct {
				ImageURL imageURL `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

// Age restyles image, a base64 JPEG or a data: URL, by decadesBack decades.
func (a *PhotoAger) Age(ctx context.Context, image string, decadesBack int) (AgedPhoto, error) {
	yearsBack := decadesBack * 10
	era := Era(decadesBack)

	if !strings.HasPrefix(image, "data:") {
		image = "data:image/jpeg;base64," + image
	}
	body := imageRequest{
		Model: a.Endpoint.Model,
		Messages: []imageMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: agePrompt(yearsBack, era)},
				{Type: "image_url", ImageURL: &imageURL{URL: image}},
			},
		}},
		Modalities: []string{"image", "text"},
	}

	var out imageResponse
	if err := a.Endpoint.post(ctx, body, &out, maxImageResponse); err != nil {
		return AgedPhoto{}, err
	}
	if len(out.Choices) == 0 || len(out.Choices[0].Message.Images) == 0 || out.Choices[0].Message.Images[0].ImageURL.URL == "" {
		return AgedPhoto{}, ErrNoImage
	}
	return AgedPhoto{
		ImageURL:  out.Choices[0].Message.Images[0].ImageURL.URL,
		YearsBack: yearsBack,
		Era:       era,
	}, nil
}
