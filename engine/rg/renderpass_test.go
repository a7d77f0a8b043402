package rg

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func sampleAttachments() ([]vk.AttachmentDescription, vk.SubpassDescription, []vk.AttachmentReference) {
	attachments := []vk.AttachmentDescription{
		{
			Format:        vk.FormatB8g8r8a8Unorm,
			Samples:       vk.SampleCount1Bit,
			LoadOp:        vk.AttachmentLoadOpClear,
			StoreOp:       vk.AttachmentStoreOpStore,
			InitialLayout: vk.ImageLayoutUndefined,
			FinalLayout:   vk.ImageLayoutShaderReadOnlyOptimal,
		},
	}
	refs := []vk.AttachmentReference{{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal}}
	subpass := vk.SubpassDescription{PipelineBindPoint: vk.PipelineBindPointGraphics}
	return attachments, subpass, refs
}

func TestRenderPassHashEqualForIdenticalDescriptions(t *testing.T) {
	a, sp, refs := sampleAttachments()
	b, sp2, refs2 := sampleAttachments()

	deps := []vk.SubpassDependency{{SrcSubpass: vk.SubpassExternal, DstSubpass: 0}}

	h1 := hashRenderPass(a, sp, refs, false, nil, deps)
	h2 := hashRenderPass(b, sp2, refs2, false, nil, deps)

	if h1 != h2 {
		t.Fatalf("identical render pass descriptions hashed differently: %x vs %x", h1, h2)
	}
	if h1 == 0 {
		t.Fatal("hash must never be the empty-slot sentinel 0")
	}
}

func TestRenderPassHashDiffersOnFormat(t *testing.T) {
	a, sp, refs := sampleAttachments()
	deps := []vk.SubpassDependency{{SrcSubpass: vk.SubpassExternal, DstSubpass: 0}}
	h1 := hashRenderPass(a, sp, refs, false, nil, deps)

	b, sp2, refs2 := sampleAttachments()
	b[0].Format = vk.FormatR8g8b8a8Unorm
	h2 := hashRenderPass(b, sp2, refs2, false, nil, deps)

	if h1 == h2 {
		t.Fatal("expected different formats to produce different hashes")
	}
}
