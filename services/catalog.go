package services

import (
	"github.com/shopspring/decimal"

	"ticket-wallet/models"
)

// The event catalog is a static read-only list; there is no admin
// surface for it.
var eventCatalog = []models.Event{
	{
		ID:          "tech-conf-2024",
		Name:        "Conferencia Tech 2024",
		Date:        "2024-10-26",
		Description: "La conferencia anual que reúne a los líderes de la industria tecnológica global.",
		Image:       "https://images.unsplash.com/photo-1540575467063-178a50c2df87?auto=format&fit=crop&w=1170&q=80",
	},
	{
		ID:          "music-fest-galaxy",
		Name:        "Galaxy Music Fest",
		Date:        "2024-11-12",
		Description: "Tres días de música inolvidable bajo las estrellas con artistas de todo el mundo.",
		Image:       "https://images.unsplash.com/photo-1514525253161-7a46d19cd819?auto=format&fit=crop&w=1074&q=80",
	},
	{
		ID:          "art-expo-visions",
		Name:        "Visiones del Futuro Art Expo",
		Date:        "2024-12-05",
		Description: "Una exposición inmersiva que explora la intersección del arte y la tecnología.",
		Image:       "https://images.unsplash.com/photo-1501281668745-f7f57925c3b4?auto=format&fit=crop&w=1170&q=80",
	},
	{
		ID:          "gastronomy-fair-2024",
		Name:        "Feria Gastronómica Sabor",
		Date:        "2025-01-15",
		Description: "Descubre los sabores del mundo en la feria gastronómica más esperada del año.",
		Image:       "https://images.unsplash.com/photo-1555939594-58d7cb561ad1?auto=format&fit=crop&w=987&q=80",
	},
	{
		ID:          "cinema-premiere-2025",
		Name:        "Festival de Cine \"La Gran Pantalla\"",
		Date:        "2025-02-20",
		Description: "Los estrenos más esperados y retrospectivas de directores legendarios. Una semana de cine.",
		Image:       "https://images.unsplash.com/photo-1574267432553-4b4628081c31?auto=format&fit=crop&w=1170&q=80",
	},
	{
		ID:          "urban-race-2025",
		Name:        "Carrera Urbana 10K Nocturna",
		Date:        "2025-03-18",
		Description: "Corre por las calles iluminadas de la ciudad en este emocionante evento deportivo para todos.",
		Image:       "https://images.unsplash.com/photo-1571019613454-1cb2f99b2d8b?auto=format&fit=crop&w=1170&q=80",
	},
}

var ticketTypeCatalog = []models.TicketType{
	{Name: "General", Price: decimal.NewFromInt(55)},
	{Name: "VIP", Price: decimal.NewFromInt(150)},
	{Name: "Prensa", Price: decimal.NewFromInt(0)},
}

func findEvent(id string) (models.Event, bool) {
	for _, e := range eventCatalog {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

func findTicketType(name string) (models.TicketType, bool) {
	for _, t := range ticketTypeCatalog {
		if t.Name == name {
			return t, true
		}
	}
	return models.TicketType{}, false
}
