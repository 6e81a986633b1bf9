package model

// Dormand–Prince 5(4) tableau. The seventh stage is evaluated at the
// accepted 5th-order point, so its derivative is the first stage of the next step.
const stages = 7

var dopriC = [stages]float64{0, 1. / 5., 3. / 10., 4. / 5., 8. / 9., 1, 1}

var dopriA = [stages][stages - 1]float64{
	{},
	{1. / 5.},
	{3. / 40., 9. / 40.},
	{44. / 45., -56. / 15., 32. / 9.},
	{19372. / 6561., -25360. / 2187., 64448. / 6561., -212. / 729.},
	{9017. / 3168., -355. / 33., 46732. / 5247., 49. / 176., -5103. / 18656.},
	{35. / 384., 0, 500. / 1113., 125. / 192., -2187. / 6784., 11. / 84.},
}

// 5th order weights
var dopriB = [stages]float64{35. / 384., 0, 500. / 1113., 125. / 192., -2187. / 6784., 11. / 84., 0}

// 5th minus 4th order weights
var dopriE = [stages]float64{
	71. / 57600., 0, -71. / 16695., 71. / 1920., -17253. / 339200., 22. / 525., -1. / 40.,
}

// Coefficients of theta, theta^2, theta^3, theta^4 in the continuous extension
// weight of every stage (Shampine's 4th order interpolant).
var dopriP = [stages][4]float64{
	{1, -8048581381. / 2820520608., 8663915743. / 2820520608., -12715105075. / 11282082432.},
	{0, 0, 0, 0},
	{0, 131558114200. / 32700410799., -68118460800. / 10900136933., 87487479700. / 32700410799.},
	{0, -1754552775. / 470086768., 14199869525. / 1410260304., -10690763975. / 1880347072.},
	{0, 127303824393. / 49829197408., -318862633887. / 49829197408., 701980252875. / 199316789632.},
	{0, -282668133. / 205662961., 2019193451. / 616988883., -1453857185. / 822651844.},
	{0, 40617522. / 29380423., -110615467. / 29380423., 69997945. / 29380423.},
}

func denseWeights(theta float64) (w [stages]float64) {
	if theta == 1 {
		return dopriB
	}
	for i := range stages {
		// Horner in theta, no constant term
		w[i] = theta * (dopriP[i][0] + theta*(dopriP[i][1]+theta*(dopriP[i][2]+theta*dopriP[i][3])))
	}
	return
}
