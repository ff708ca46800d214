package shader

// Uniform names shared with the compute and presentation sources. Renaming
// one side without the other silently turns writes into no-ops.
const (
	UniformBlackHoleCenter = "bh_center"
	UniformSchwarzschild   = "Rs"
	UniformDiskInnerRadius = "diskInnerRadius"
	UniformDiskOuterRadius = "diskOuterRadius"
	UniformDiskColor       = "diskColor"
	UniformDiskIntensity   = "diskIntensity"
	UniformDiskNormal      = "diskNormal"

	UniformStarCenter        = "starCenter"
	UniformStarRadius        = "starRadius"
	UniformStarEmissionColor = "starEmissionColor"
	UniformStarIntensity     = "starIntensity"

	UniformCameraPos     = "cameraPos"
	UniformInvView       = "invView"
	UniformInvProjection = "invProjection"
	UniformResolution    = "resolutionVector"

	UniformScreenTexture = "screenTexture"
)

// ComputeUniforms lists every uniform the compute program is expected to
// declare.
var ComputeUniforms = []string{
	UniformBlackHoleCenter,
	UniformSchwarzschild,
	UniformDiskInnerRadius,
	UniformDiskOuterRadius,
	UniformDiskColor,
	UniformDiskIntensity,
	UniformDiskNormal,
	UniformStarCenter,
	UniformStarRadius,
	UniformStarEmissionColor,
	UniformStarIntensity,
	UniformCameraPos,
	UniformInvView,
	UniformInvProjection,
	UniformResolution,
}

// MissingUniforms returns the names in want that p does not expose.
func MissingUniforms(p *Program, want []string) []string {
	var missing []string
	for _, name := range want {
		if p.UniformLocation(name) < 0 {
			missing = append(missing, name)
		}
	}
	return missing
}
