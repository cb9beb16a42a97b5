// Package regression fits the parameters of the 3R2C building model from a
// table of building archetypes. Each archetype row maps (year of construction,
// heated area, renovation class) to six RC-network parameters and an annual net
// heat demand per square metre. The model is a multi-output linear regression
// trained with batch gradient descent on z-score normalized features.
package regression
