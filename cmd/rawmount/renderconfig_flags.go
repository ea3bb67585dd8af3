package main

import (
	"github.com/spf13/cobra"

	"rawmount/internal/renderconfig"
)

// renderConfigFlags binds the RenderConfig fields the mount and
// render-config-set commands share onto a cobra flag set.
type renderConfigFlags struct {
	draft                 bool
	draftScale            int
	levels                string
	cfrTarget             string
	crop                  string
	cameraModel           string
	applyVignette         bool
	normalizeShadingMap   bool
	debugShadingMap       bool
	vignetteOnlyColor     bool
	normalizeExposure     bool
	framerateConversion   bool
	exposureCompensation  string
	logTransform          string
	quadBayerOption       string
	cfaPhase              string
	remosaic              bool
}

func addRenderConfigFlags(cmd *cobra.Command, f *renderConfigFlags) {
	d := renderconfig.Default()
	cmd.Flags().BoolVar(&f.draft, "draft", false, "enable draft-mode decimation")
	cmd.Flags().IntVar(&f.draftScale, "draft-scale", d.DraftScale, "draft decimation divisor")
	cmd.Flags().StringVar(&f.levels, "levels", d.Levels, `black/white level policy ("Dynamic", "Static", or "W/B")`)
	cmd.Flags().StringVar(&f.cfrTarget, "cfr-target", d.CFRTarget, "constant-framerate target preset or numeric fps")
	cmd.Flags().StringVar(&f.crop, "crop", "", `crop target "WxH", empty for none`)
	cmd.Flags().StringVar(&f.cameraModel, "camera-model", "", "override the DNG UniqueCameraModel/Model tags")
	cmd.Flags().BoolVar(&f.applyVignette, "apply-vignette", false, "apply the calibration vignette/shading map correction")
	cmd.Flags().BoolVar(&f.normalizeShadingMap, "normalize-shading-map", false, "normalize the shading map before applying it")
	cmd.Flags().BoolVar(&f.debugShadingMap, "debug-shading-map", false, "render the shading map itself instead of the frame")
	cmd.Flags().BoolVar(&f.vignetteOnlyColor, "vignette-only-color", false, "apply only the color channels of the shading map")
	cmd.Flags().BoolVar(&f.normalizeExposure, "normalize-exposure", false, "apply automatic exposure normalization")
	cmd.Flags().BoolVar(&f.framerateConversion, "framerate-conversion", false, "enable CFR/VFR framerate conversion")
	cmd.Flags().StringVar(&f.exposureCompensation, "exposure", "", "exposure compensation value or keyframe list")
	cmd.Flags().StringVar(&f.logTransform, "log-transform", "", `log transform policy ("", "Keep Input", "Reduce by Nbit")`)
	cmd.Flags().StringVar(&f.quadBayerOption, "quad-bayer", "", "quad-Bayer sensor interpretation passthrough flag")
	cmd.Flags().StringVar(&f.cfaPhase, "cfa-phase", "", `override CFA phase ("bggr", "rggb", "grbg", "gbrg")`)
	cmd.Flags().BoolVar(&f.remosaic, "remosaic", false, "enable remosaic processing")
}

func (f *renderConfigFlags) build() renderconfig.Config {
	cfg := renderconfig.Config{
		DraftScale:           f.draftScale,
		Levels:               f.levels,
		CFRTarget:            f.cfrTarget,
		CropTarget:           f.crop,
		CameraModel:          f.cameraModel,
		ExposureCompensation: f.exposureCompensation,
		LogTransform:         f.logTransform,
		QuadBayerOption:      f.quadBayerOption,
		CFAPhase:             renderconfig.CFAPhase(f.cfaPhase),
	}

	set := func(on bool, opt renderconfig.Options) {
		if on {
			cfg.Opts |= opt
		}
	}
	set(f.draft, renderconfig.Draft)
	set(f.applyVignette, renderconfig.ApplyVignetteCorrection)
	set(f.normalizeShadingMap, renderconfig.NormalizeShadingMap)
	set(f.debugShadingMap, renderconfig.DebugShadingMap)
	set(f.vignetteOnlyColor, renderconfig.VignetteOnlyColor)
	set(f.normalizeExposure, renderconfig.NormalizeExposure)
	set(f.framerateConversion, renderconfig.FramerateConversion)
	set(f.crop != "", renderconfig.Cropping)
	set(f.cameraModel != "", renderconfig.CamModelOverride)
	set(f.logTransform != "", renderconfig.LogTransform)
	set(f.remosaic, renderconfig.Remosaic)

	return cfg
}
