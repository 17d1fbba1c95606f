package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ContentTypeFor", func() {
	DescribeTable("resolving the upload type",
		func(filename, declared, expected string) {
			Expect(ContentTypeFor(filename, declared)).To(Equal(expected))
		},
		Entry("declared type wins", "a.pdf", "Image/JPEG ", "image/jpeg"),
		Entry("octet-stream falls back to the extension", "a.PDF", "application/octet-stream", "application/pdf"),
		Entry("jpeg by extension", "a.jpeg", "", "image/jpeg"),
		Entry("heic by extension", "IMG_0001.HEIC", "", "image/heic"),
		Entry("unknown extension", "a.txt", "", "application/octet-stream"),
	)
})

var _ = Describe("isHEIC", func() {
	It("should detect the ftyp brand", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypheic0000")...)
		Expect(isHEIC(data, "application/octet-stream")).To(BeTrue())
	})

	It("should trust the declared MIME type", func() {
		Expect(isHEIC([]byte("short"), "image/heif")).To(BeTrue())
	})

	It("should reject other data", func() {
		Expect(isHEIC([]byte("definitely not an image"), "image/jpeg")).To(BeFalse())
	})
})

var _ = Describe("preparePNG", func() {
	var sample image.Image

	BeforeEach(func() {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		img.Set(1, 1, color.RGBA{R: 255, A: 255})
		sample = img
	})

	When("the upload is already PNG", func() {
		It("should return the bytes untouched", func() {
			var buf bytes.Buffer
			Expect(png.Encode(&buf, sample)).To(Succeed())
			out, err := preparePNG(buf.Bytes(), "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(buf.Bytes()))
		})
	})

	When("the upload is JPEG", func() {
		It("should convert it to PNG", func() {
			var buf bytes.Buffer
			Expect(jpeg.Encode(&buf, sample, nil)).To(Succeed())
			out, err := preparePNG(buf.Bytes(), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			_, format, err := image.Decode(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(format).To(Equal("png"))
		})
	})

	When("the upload is not an image", func() {
		It("returns the error", func() {
			_, err := preparePNG([]byte("plain text"), "image/jpeg")
			Expect(err).To(MatchError(ContainSubstring("unsupported image format")))
		})
	})
})
