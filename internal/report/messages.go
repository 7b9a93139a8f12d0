package report

import (
	"github.com/san-kum/odesolve/internal/multistep"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message arguments: 1 name, 2 t, 3 h, 4 step, 5 order.
var catalog = map[language.Tag]map[multistep.Kind]string{
	language.English: {
		multistep.RHSFuncFail:  "%[1]s: the derivative function failed at t=%[2]g",
		multistep.ConvFailure:  "%[1]s: the corrector did not converge at t=%[2]g (h=%[3]g)",
		multistep.ErrFailure:   "%[1]s: the error test failed repeatedly at t=%[2]g (h=%[3]g)",
		multistep.LSetupFail:   "%[1]s: the Jacobian setup failed at t=%[2]g",
		multistep.LSolveFail:   "%[1]s: the linear solve failed at t=%[2]g",
		multistep.TooMuchWork:  "%[1]s: step budget exhausted at t=%[2]g after %[4]d steps",
		multistep.TooMuchAcc:   "%[1]s: tolerances are too tight for t=%[2]g",
		multistep.ZeroStepSize: "%[1]s: the step size %[3]g underflowed at t=%[2]g",
		multistep.TooClose:     "%[1]s: the output time is too close to the start time %[2]g",
		multistep.IllInput:     "%[1]s: illegal input at t=%[2]g",
		multistep.BadT:         "%[1]s: the requested time lies outside the last step ending at t=%[2]g",
		multistep.BadK:         "%[1]s: derivative order out of range for order %[5]d",
	},
	language.German: {
		multistep.RHSFuncFail:  "%[1]s: die Ableitungsfunktion schlug bei t=%[2]g fehl",
		multistep.ConvFailure:  "%[1]s: der Korrektor konvergierte nicht bei t=%[2]g (h=%[3]g)",
		multistep.ErrFailure:   "%[1]s: der Fehlertest schlug bei t=%[2]g wiederholt fehl (h=%[3]g)",
		multistep.LSetupFail:   "%[1]s: der Aufbau der Jacobi-Matrix schlug bei t=%[2]g fehl",
		multistep.LSolveFail:   "%[1]s: das lineare Gleichungssystem bei t=%[2]g ist nicht lösbar",
		multistep.TooMuchWork:  "%[1]s: Schrittbudget bei t=%[2]g nach %[4]d Schritten erschöpft",
		multistep.TooMuchAcc:   "%[1]s: die Toleranzen sind für t=%[2]g zu streng",
		multistep.ZeroStepSize: "%[1]s: die Schrittweite %[3]g ist bei t=%[2]g zu klein geworden",
		multistep.TooClose:     "%[1]s: der Ausgabezeitpunkt liegt zu nahe am Startzeitpunkt %[2]g",
		multistep.IllInput:     "%[1]s: ungültige Eingabe bei t=%[2]g",
		multistep.BadT:         "%[1]s: der angefragte Zeitpunkt liegt außerhalb des letzten Schritts bis t=%[2]g",
		multistep.BadK:         "%[1]s: Ableitungsordnung außerhalb des Bereichs für Ordnung %[5]d",
	},
}

var supported = []language.Tag{language.English, language.German}

var matcher = language.NewMatcher(supported)

func init() {
	for tag, messages := range catalog {
		for kind, msg := range messages {
			if err := message.SetString(tag, kind.String(), msg); err != nil {
				panic(err)
			}
		}
	}
}

// Printer returns a printer for the closest supported language to lang.
// Unknown or malformed tags fall back to English.
func Printer(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		return message.NewPrinter(language.English)
	}
	_, idx, _ := matcher.Match(tag)
	return message.NewPrinter(supported[idx])
}

// Describe renders a one-line description of a solver failure.
func Describe(p *message.Printer, kind multistep.Kind, ctx multistep.ErrorContext) string {
	name := ctx.Name
	if name == "" {
		name = "solver"
	}
	return p.Sprintf(kind.String(), name, ctx.T, ctx.H, ctx.Step, ctx.Q)
}
