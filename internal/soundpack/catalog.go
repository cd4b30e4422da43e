package soundpack

// Sound is a catalog entry: a source id plus its presentation defaults
type Sound struct {
	ID            string // source id resolved through the soundpack
	Name          string
	DefaultVolume int // percent
}

// Ambient is the built-in ambient catalog. Each entry plays on the channel of the same name.
var Ambient = map[string]Sound{
	"rain":   {ID: "audio/rain.ogg", Name: "Rain", DefaultVolume: 50},
	"forest": {ID: "audio/forest.ogg", Name: "Forest", DefaultVolume: 30},
	"ocean":  {ID: "audio/ocean.ogg", Name: "Ocean", DefaultVolume: 40},
	"fire":   {ID: "audio/fire.ogg", Name: "Campfire", DefaultVolume: 35},
}

// LookupAmbient returns the catalog entry for an ambient channel name
func LookupAmbient(name string) (Sound, bool) {
	s, ok := Ambient[name]
	return s, ok
}
