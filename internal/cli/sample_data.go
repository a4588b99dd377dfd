package cli

import "github.com/smarvasti/haftify/internal/domain"

// sampleCatalogs provides a minimal question bank for the no-database dev
// setup; production loads catalog JSONB from Postgres.
func sampleCatalogs() map[string]domain.Catalog {
	return map[string]domain.Catalog{
		"catalog-2024": {
			ID:    "catalog-2024",
			Year:  2024,
			Title: "Haftpflicht Underwriter Prüfung 2024",
			Modules: []domain.Module{
				{
					ID:    "module-1",
					Title: "Modul I - Haftung des Warenproduzenten",
					Categories: []domain.Category{
						{
							ID:    "cat-1-1",
							Title: "Grundlagen der Haftung",
							Questions: []domain.Question{
								{
									ID:               "1.1",
									Text:             "Welche schuldrechtlichen Anspruchsgrundlagen kommen gegen den Verkäufer in Betracht?",
									Points:           2,
									IsMultipleChoice: true,
									Answers: []domain.Answer{
										{Text: "§ 280 Abs. 1 BGB in Verbindung mit § 241 Abs. 2 BGB", IsCorrect: true},
										{Text: "§ 437 Nr. 3 BGB in Verbindung mit § 280 Abs. 1 BGB", IsCorrect: true},
										{Text: "§ 823 Abs. 1 BGB", IsCorrect: false, Explanation: "Dies ist eine deliktische Anspruchsgrundlage, während hier nur schuldrechtliche Ansprüche gefragt sind."},
									},
								},
								{
									ID:     "1.2",
									Text:   "Wie lange beträgt die Regelverjährung nach §§ 195 ff. BGB?",
									Points: 1,
									Answers: []domain.Answer{
										{Text: "Drei Jahre", IsCorrect: true},
										{Text: "Fünf Jahre", IsCorrect: false, Explanation: "Die Regelverjährung beträgt drei Jahre."},
									},
								},
							},
						},
						{
							ID:    "cat-1-2",
							Title: "Produkthaftungsgesetz",
							Questions: []domain.Question{
								{
									ID:     "2.1",
									Text:   "Setzt die Haftung nach dem ProdHaftG ein Verschulden des Herstellers voraus?",
									Points: 1,
									Answers: []domain.Answer{
										{Text: "Nein, es handelt sich um eine Gefährdungshaftung", IsCorrect: true},
										{Text: "Ja, mindestens Fahrlässigkeit", IsCorrect: false, Explanation: "Das ProdHaftG begründet eine verschuldensunabhängige Gefährdungshaftung."},
									},
								},
							},
						},
					},
				},
				{
					ID:    "module-2",
					Title: "Modul II - Betriebshaftpflicht",
					Categories: []domain.Category{
						{
							ID:    "cat-2-1",
							Title: "Versicherungsumfang",
							Questions: []domain.Question{
								{
									ID:     "3.1",
									Text:   "Welche Schäden deckt die Betriebshaftpflichtversicherung grundsätzlich ab?",
									Points: 2,
									Answers: []domain.Answer{
										{Text: "Personen- und Sachschäden Dritter", IsCorrect: true},
										{Text: "Eigenschäden des Versicherungsnehmers", IsCorrect: false, Explanation: "Eigenschäden sind kein Gegenstand der Haftpflichtversicherung."},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}
