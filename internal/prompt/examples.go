package prompt

// Example is one worked input/output pair shown to the model before the
// actual request. The assistant side is the exact structured payload we
// expect back: a single JSON object with a "code" key.
type Example struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// builtinExamples is the fixed few-shot library. Order is part of the
// prompt contract and must stay stable: reordering changes model behavior
// and breaks prompt reproducibility.
var builtinExamples = []Example{
	{
		User: "Create a rectangular plate 20 mm long, 10 mm wide and 5 mm thick.",
		Assistant: `{"code": "import cadquery as cq\n\nlength = 20.0\nwidth = 10.0\nthickness = 5.0\n\nresult = cq.Workplane(\"XY\").box(length, width, thickness)"}`,
	},
	{
		User: "Make a washer with 30 mm outer diameter, 15 mm inner diameter, 4 mm thick.",
		Assistant: `{"code": "import cadquery as cq\n\nouter_diameter = 30.0\ninner_diameter = 15.0\nthickness = 4.0\n\nresult = (\n    cq.Workplane(\"XY\")\n    .circle(outer_diameter / 2.0)\n    .circle(inner_diameter / 2.0)\n    .extrude(thickness)\n)"}`,
	},
	{
		User: "I need a mounting bracket: a 50x50x6 mm plate with four 5 mm holes, one near each corner, inset 8 mm.",
		Assistant: `{"code": "import cadquery as cq\n\nside = 50.0\nthickness = 6.0\nhole_diameter = 5.0\ninset = 8.0\n\nspacing = side - 2.0 * inset\n\nresult = (\n    cq.Workplane(\"XY\")\n    .box(side, side, thickness)\n    .faces(\">Z\")\n    .workplane()\n    .rect(spacing, spacing, forConstruction=True)\n    .vertices()\n    .hole(hole_diameter)\n)"}`,
	},
}
