package domain

import (
	"fmt"
	"strings"
)

// DefaultInstruction は、画像と一緒に送る固定の指示文です
const DefaultInstruction = `Bu resmi son derece ayrıntılı bir şekilde analiz et. Midjourney veya DALL-E 3 gibi bir yapay zeka görüntü oluşturucu için neredeyse aynı bir görüntü oluşturacak iki adet yüksek kaliteli, açıklayıcı prompt üret. Prompt'lardan birini Türkçe, diğerini İngilizce olarak sağla.

Her iki prompt için de analizi şu bileşenlere ayır:
- **Konu:** Ana konu nedir? Görünüşünü, kıyafetini, ifadesini ve eylemini tanımla.
- **Ortam/Arka Plan:** Konu nerede? Çevreyi, günün saatini ve arka plandaki unsurları tanımla.
- **Kompozisyon ve Işıklandırma:** Çekim nasıl çerçevelenmiş? Işıklandırmayı ayrıntılı olarak tanımla (örneğin, sinematik ışıklandırma, yumuşak ışık, hacimsel ışık).
- **Kamera Detayları:** Kamera açısını (örneğin, alçak açı, göz hizası çekim), lens türünü (örneğin, 35mm, 85mm) ve çekim türünü (örneğin, yakın çekim, geniş çekim) belirt.
- **Sanat Tarzı:** Stili tanımla (örneğin, fotogerçekçi, sinematik, fantezi sanatı).
- **Renk Paleti:** Baskın renkleri ve genel ruh halini tanımla.

Bu unsurları her dil için tek bir, tutarlı paragrafta birleştir. Zengin bir kelime dağarcığı kullan. **ÇOK ÖNEMLİ: Her iki dildeki prompt'un da mutlaka ışıklandırma, kamera bilgisi (lens, tür) ve kamera açısı hakkında belirli ayrıntılarla bittiğinden emin ol.** Çıktıyı "turkish" ve "english" anahtarlarına sahip bir JSON nesnesi olarak biçimlendir.`

// SchemaType は、出力スキーマの型名です
type SchemaType string

const (
	SchemaTypeObject SchemaType = "object"
	SchemaTypeString SchemaType = "string"
)

// SchemaProperty は、出力スキーマのプロパティです
type SchemaProperty struct {
	Name string
	Type SchemaType
}

// ResponseSchema は、生成サービスに要求する構造化出力の形です
type ResponseSchema struct {
	Type       SchemaType
	Properties []SchemaProperty
	Required   []string
}

// PromptsSchema は、turkishとenglishの2つの必須文字列を持つスキーマを返します
func PromptsSchema() ResponseSchema {
	return ResponseSchema{
		Type: SchemaTypeObject,
		Properties: []SchemaProperty{
			{Name: string(LanguageTurkish), Type: SchemaTypeString},
			{Name: string(LanguageEnglish), Type: SchemaTypeString},
		},
		Required: []string{string(LanguageTurkish), string(LanguageEnglish)},
	}
}

// GenerationRequest は、一回の生成で送信するリクエストです
// 生成のたびに新しく作られ、変更されません
type GenerationRequest struct {
	ImageName   string
	MIMEType    string
	ImageBase64 string
	Instruction string
	Schema      ResponseSchema
}

// NewGenerationRequest は、画像と指示文からリクエストを組み立てます
func NewGenerationRequest(image *UploadedImage, instruction string) (GenerationRequest, error) {
	if image == nil || image.Size() == 0 {
		return GenerationRequest{}, NewInputError(ErrNoImage)
	}

	if strings.TrimSpace(instruction) == "" {
		instruction = DefaultInstruction
	}

	return GenerationRequest{
		ImageName:   image.Name,
		MIMEType:    image.MIMEType,
		ImageBase64: image.Base64(),
		Instruction: instruction,
		Schema:      PromptsSchema(),
	}, nil
}

// DataURL は、画像をData URL形式で返します
func (r GenerationRequest) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", r.MIMEType, r.ImageBase64)
}
