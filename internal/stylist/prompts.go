package stylist

import (
	"fmt"

	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
)

const templateSystemPrompt = `You are a creative director and brand strategist specializing in Farcaster ecosystem projects.
Given a user's prompt, create a comprehensive project template that defines the visual theme, style, and branding elements.

The template should include:
- Visual theme and aesthetic direction
- Color palette and mood
- Style characteristics (minimalist, modern, playful, etc.)
- Key visual elements and motifs
- Brand personality and tone
- Target audience and use case

This template will be used to generate 4 consistent, themed images for a Farcaster project.
Focus on creating a cohesive visual identity that works across different image types.

Return a detailed template description (150-200 words) that captures the essence of the project.`

const variantSystemPrompt = `You are a prompt engineering expert for AI image generation, specializing in Farcaster ecosystem content.
Given a project template, create 4 optimized prompts for different Farcaster use cases:

1. ICON: Farcaster app icon design (square, minimalist, clean, no text, fills entire frame, purple/blue theme)
2. HERO: Farcaster cast promotional banner (landscape, social media visual, eye-catching, engaging)
3. OG: Farcaster Open Graph card (shareable, social media optimized, engaging design)
4. SPLASH: Farcaster app loading screen (minimal, clean, centered, calming, purple theme)

Each prompt should:
- Follow the project template's visual theme and style
- Maintain consistency across all 4 images
- Include Farcaster branding elements: purple/blue color schemes, decentralized social media themes
- Be 50-100 words, specific to Farcaster ecosystem
- Include technical details like "1024x1024 pixels", "professional", "high quality"

Return ONLY a JSON object with keys: icon, hero, og, splash`

// FallbackTemplate is the deterministic substitute when the template call
// fails. The pipeline must never stall on this stage.
func FallbackTemplate(userPrompt string) string {
	return fmt.Sprintf("Modern, minimalist design with a focus on clean lines and professional aesthetics. "+
		"The visual theme centers around %s with a sophisticated color palette featuring deep purples, "+
		"electric blues, and subtle gradients. The style emphasizes geometric shapes, contemporary typography, "+
		"and a tech-forward approach that resonates with the Farcaster ecosystem. Key visual elements include "+
		"abstract patterns, subtle animations, and a balance between digital innovation and human connection. "+
		"The brand personality is confident, innovative, and community-focused, targeting decentralized social "+
		"media enthusiasts and blockchain-savvy users.", userPrompt)
}

var fallbackSuffixes = map[domain.Variant]string{
	domain.VariantIcon: "Farcaster app icon design, square format, minimalist, clean lines, professional, " +
		"centered composition, high contrast, no text, vector-style, modern UI icon, 1024x1024 pixels, " +
		"crisp edges, solid background, icon fills entire frame, purple and blue theme, decentralized social media",
	domain.VariantHero: "Farcaster cast promotional banner design, landscape format, social media visual, " +
		"eye-catching, professional, modern design, high impact, 1024x1024 pixels, vibrant colors, " +
		"engaging composition, purple and blue theme, decentralized social media",
	domain.VariantOG: "Farcaster Open Graph card design, social media optimized, shareable visual, " +
		"engaging design, professional, modern, 1024x1024 pixels, high quality, social media optimized, " +
		"eye-catching, purple and blue theme, decentralized social media",
	domain.VariantSplash: "Farcaster app loading screen, splash screen design, minimal, clean, centered logo, " +
		"simple background, professional, modern, 1024x1024 pixels, calming colors, elegant, purple theme, " +
		"decentralized social media",
}

// FallbackPrompts derives one prompt per variant from the template alone.
func FallbackPrompts(template string) map[domain.Variant]string {
	prompts := make(map[domain.Variant]string, len(fallbackSuffixes))
	for variant, suffix := range fallbackSuffixes {
		prompts[variant] = template + ", " + suffix
	}
	return prompts
}
