package main

// paletteStops is a deep-blue to red ramp for overlay coloring.
var paletteStops = [][3]float64{
	{24, 52, 120},
	{36, 140, 170},
	{90, 190, 96},
	{230, 200, 60},
	{204, 46, 40},
}

// palette maps a normalized value in [0, 1] onto the ramp.
func palette(t float64, alpha uint8) [4]uint8 {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	pos := t * float64(len(paletteStops)-1)
	i := int(pos)
	if i >= len(paletteStops)-1 {
		i = len(paletteStops) - 2
	}
	frac := pos - float64(i)
	a := paletteStops[i]
	b := paletteStops[i+1]
	return [4]uint8{
		uint8(a[0] + (b[0]-a[0])*frac),
		uint8(a[1] + (b[1]-a[1])*frac),
		uint8(a[2] + (b[2]-a[2])*frac),
		alpha,
	}
}
